package validation

import (
	"encoding/json"
	"math"

	"github.com/wwwlqh/insurance-risk-modeling/ml"
)

type kind int

const (
	kindInt kind = iota
	kindFloat
	kindString
)

type field struct {
	name string
	kind kind
	set  func(*ml.Application, any)
}

// fields lists every request field with its JSON type and where it lands in
// ml.Application.
var fields = []field{
	{"age", kindInt, func(a *ml.Application, v any) { a.Age = int(v.(int64)) }},
	{"gender", kindString, func(a *ml.Application, v any) { a.Gender = v.(string) }},
	{"marital_status", kindString, func(a *ml.Application, v any) { a.MaritalStatus = v.(string) }},
	{"urbanization_level", kindString, func(a *ml.Application, v any) { a.UrbanizationLevel = v.(string) }},
	{"policy_term", kindInt, func(a *ml.Application, v any) { a.PolicyTerm = int(v.(int64)) }},
	{"claim_frequency", kindInt, func(a *ml.Application, v any) { a.ClaimFrequency = int(v.(int64)) }},
	{"maintenance_level", kindString, func(a *ml.Application, v any) { a.MaintenanceLevel = v.(string) }},
	{"building_age", kindInt, func(a *ml.Application, v any) { a.BuildingAge = int(v.(int64)) }},
	{"customer_satisfaction", kindInt, func(a *ml.Application, v any) { a.CustomerSatisfaction = int(v.(int64)) }},
	{"has_security_system", kindString, func(a *ml.Application, v any) { a.HasSecuritySystem = v.(string) }},
	{"construction_type", kindString, func(a *ml.Application, v any) { a.ConstructionType = v.(string) }},
	{"policy_tenure", kindInt, func(a *ml.Application, v any) { a.PolicyTenure = int(v.(int64)) }},
	{"payment_method", kindString, func(a *ml.Application, v any) { a.PaymentMethod = v.(string) }},
	{"credit_score", kindFloat, func(a *ml.Application, v any) { a.CreditScore = v.(float64) }},
	{"fire_risk_score", kindFloat, func(a *ml.Application, v any) { a.FireRiskScore = v.(float64) }},
	{"flood_risk_index", kindFloat, func(a *ml.Application, v any) { a.FloodRiskIndex = v.(float64) }},
	{"crime_rate_index", kindFloat, func(a *ml.Application, v any) { a.CrimeRateIndex = v.(float64) }},
	{"annual_income", kindFloat, func(a *ml.Application, v any) { a.AnnualIncome = v.(float64) }},
	{"property_value", kindFloat, func(a *ml.Application, v any) { a.PropertyValue = v.(float64) }},
	{"premium_amount", kindFloat, func(a *ml.Application, v any) { a.PremiumAmount = v.(float64) }},
	{"claim_amount_last", kindFloat, func(a *ml.Application, v any) { a.ClaimAmountLast = v.(float64) }},
}

const (
	msgRequired = "field required"
	msgInteger  = "value is not a valid integer"
	msgNumber   = "value is not a valid number"
	msgString   = "value is not a valid string"
)

// coerce converts a decoded JSON value to the field's CEL-native type: int64,
// float64 or string. Integral floats such as 4.0 are accepted as integers.
func coerce(k kind, raw any) (any, string) {
	switch k {
	case kindInt:
		f, ok := toFloat(raw)
		if !ok || math.Trunc(f) != f || math.Abs(f) > 1<<53 {
			return nil, msgInteger
		}
		return int64(f), ""
	case kindFloat:
		f, ok := toFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, msgNumber
		}
		return f, ""
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, msgString
		}
		return s, ""
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
