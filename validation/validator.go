package validation

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/wwwlqh/insurance-risk-modeling/ml"
)

// Rule is a boolean CEL expression over the request fields. A rule that
// evaluates to false rejects Field with Message.
type Rule struct {
	Field   string `yaml:"field" json:"field"`
	Expr    string `yaml:"expr" json:"expr"`
	Message string `yaml:"message" json:"message"`
}

// DefaultRules are the range checks every request must pass.
func DefaultRules() []Rule {
	rules := []Rule{
		{Field: "age", Expr: "age >= 18 && age <= 100", Message: "must be between 18 and 100"},
		{Field: "claim_frequency", Expr: "claim_frequency >= 0", Message: "must be greater than or equal to 0"},
		{Field: "building_age", Expr: "building_age >= 0", Message: "must be greater than or equal to 0"},
		{Field: "customer_satisfaction", Expr: "customer_satisfaction >= 1 && customer_satisfaction <= 5", Message: "must be between 1 and 5"},
		{Field: "policy_tenure", Expr: "policy_tenure >= 0", Message: "must be greater than or equal to 0"},
		{Field: "annual_income", Expr: "annual_income > 0.0", Message: "must be greater than 0"},
		{Field: "property_value", Expr: "property_value > 0.0", Message: "must be greater than 0"},
		{Field: "premium_amount", Expr: "premium_amount > 0.0", Message: "must be greater than 0"},
		{Field: "claim_amount_last", Expr: "claim_amount_last >= 0.0", Message: "must be greater than or equal to 0"},
	}
	for _, f := range fields {
		if f.kind == kindString {
			rules = append(rules, Rule{Field: f.name, Expr: fmt.Sprintf("size(%s) > 0", f.name), Message: "must not be empty"})
		}
	}
	return rules
}

type compiledRule struct {
	Rule
	program cel.Program
}

// Validator checks decoded request bodies and turns them into applications.
type Validator struct {
	rules []compiledRule
}

// New compiles the default rules followed by extra.
func New(extra ...Rule) (*Validator, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	all := append(DefaultRules(), extra...)
	v := &Validator{rules: make([]compiledRule, 0, len(all))}
	for _, rule := range all {
		prog, err := compile(env, rule)
		if err != nil {
			return nil, err
		}
		v.rules = append(v.rules, compiledRule{Rule: rule, program: prog})
	}
	return v, nil
}

func newEnv() (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields))
	for _, f := range fields {
		switch f.kind {
		case kindInt:
			opts = append(opts, cel.Variable(f.name, cel.IntType))
		case kindFloat:
			opts = append(opts, cel.Variable(f.name, cel.DoubleType))
		default:
			opts = append(opts, cel.Variable(f.name, cel.StringType))
		}
	}
	return cel.NewEnv(opts...)
}

func compile(env *cel.Env, rule Rule) (cel.Program, error) {
	if rule.Field == "" || rule.Expr == "" {
		return nil, fmt.Errorf("rule needs both field and expr: %+v", rule)
	}
	ast, issues := env.Compile(rule.Expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule for %s: %w", rule.Field, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule for %s must return bool, returns %v", rule.Field, ast.OutputType())
	}
	prog, err := env.Program(ast, cel.CostLimit(100000))
	if err != nil {
		return nil, fmt.Errorf("program rule for %s: %w", rule.Field, err)
	}
	return prog, nil
}

// Decode validates a JSON object and returns the application it describes.
// On failure the error is Errors listing every rejected field.
func (v *Validator) Decode(body map[string]any) (ml.Application, error) {
	var (
		app        ml.Application
		errs       Errors
		activation = make(map[string]any, len(fields))
	)
	for _, f := range fields {
		raw, ok := body[f.name]
		if !ok || raw == nil {
			errs = append(errs, FieldError{Field: f.name, Message: msgRequired})
			continue
		}
		value, msg := coerce(f.kind, raw)
		if msg != "" {
			errs = append(errs, FieldError{Field: f.name, Message: msg})
			continue
		}
		activation[f.name] = value
		f.set(&app, value)
	}
	if len(errs) > 0 {
		return ml.Application{}, errs
	}

	for _, rule := range v.rules {
		out, _, err := rule.program.Eval(activation)
		if err != nil {
			errs = append(errs, FieldError{Field: rule.Field, Message: fmt.Sprintf("rule evaluation failed: %v", err)})
			continue
		}
		if ok, isBool := out.Value().(bool); !isBool || !ok {
			errs = append(errs, FieldError{Field: rule.Field, Message: rule.Message})
		}
	}
	if len(errs) > 0 {
		return ml.Application{}, errs
	}
	return app, nil
}

// Check runs the rules against an already typed application.
func (v *Validator) Check(app ml.Application) error {
	_, err := v.Decode(toBody(app))
	return err
}

func toBody(a ml.Application) map[string]any {
	return map[string]any{
		"age":                   a.Age,
		"gender":                a.Gender,
		"marital_status":        a.MaritalStatus,
		"urbanization_level":    a.UrbanizationLevel,
		"policy_term":           a.PolicyTerm,
		"claim_frequency":       a.ClaimFrequency,
		"maintenance_level":     a.MaintenanceLevel,
		"building_age":          a.BuildingAge,
		"customer_satisfaction": a.CustomerSatisfaction,
		"has_security_system":   a.HasSecuritySystem,
		"construction_type":     a.ConstructionType,
		"policy_tenure":         a.PolicyTenure,
		"payment_method":        a.PaymentMethod,
		"credit_score":          a.CreditScore,
		"fire_risk_score":       a.FireRiskScore,
		"flood_risk_index":      a.FloodRiskIndex,
		"crime_rate_index":      a.CrimeRateIndex,
		"annual_income":         a.AnnualIncome,
		"property_value":        a.PropertyValue,
		"premium_amount":        a.PremiumAmount,
		"claim_amount_last":     a.ClaimAmountLast,
	}
}

// AsErrors extracts field errors from err.
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}
