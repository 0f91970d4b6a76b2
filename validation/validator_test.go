package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwlqh/insurance-risk-modeling/ml"
)

const sampleBody = `{
	"age": 45, "gender": "Male", "marital_status": "Married",
	"urbanization_level": "Urban", "policy_term": 10, "claim_frequency": 2,
	"maintenance_level": "Medium", "building_age": 15, "customer_satisfaction": 4,
	"has_security_system": "Yes", "construction_type": "Brick Wall",
	"policy_tenure": 5, "payment_method": "Online Payment",
	"credit_score": 650.0, "fire_risk_score": 35.0, "flood_risk_index": 40.0,
	"crime_rate_index": 50.0, "annual_income": 50000.0, "property_value": 200000.0,
	"premium_amount": 1200.0, "claim_amount_last": 2000.0
}`

func body(t *testing.T, overrides map[string]any) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(sampleBody), &m))
	for k, v := range overrides {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}
	return m
}

func newValidator(t *testing.T, extra ...Rule) *Validator {
	t.Helper()
	v, err := New(extra...)
	require.NoError(t, err)
	return v
}

func TestDecodeSample(t *testing.T) {
	app, err := newValidator(t).Decode(body(t, nil))
	require.NoError(t, err)
	assert.Equal(t, ml.SampleApplication(), app)
}

func TestDecodeAcceptsIntegralFloats(t *testing.T) {
	app, err := newValidator(t).Decode(body(t, map[string]any{"customer_satisfaction": 4.0}))
	require.NoError(t, err)
	assert.Equal(t, 4, app.CustomerSatisfaction)
}

func TestDecodeRejections(t *testing.T) {
	cases := []struct {
		field string
		value any
		msg   string
	}{
		{"age", 17.0, "between 18 and 100"},
		{"age", 101.0, "between 18 and 100"},
		{"age", 45.5, msgInteger},
		{"age", "45", msgInteger},
		{"customer_satisfaction", 0.0, "between 1 and 5"},
		{"customer_satisfaction", 6.0, "between 1 and 5"},
		{"claim_frequency", -1.0, "greater than or equal to 0"},
		{"building_age", -3.0, "greater than or equal to 0"},
		{"policy_tenure", -1.0, "greater than or equal to 0"},
		{"annual_income", 0.0, "greater than 0"},
		{"property_value", -5.0, "greater than 0"},
		{"premium_amount", 0.0, "greater than 0"},
		{"claim_amount_last", -0.01, "greater than or equal to 0"},
		{"credit_score", "high", msgNumber},
		{"gender", 1.0, msgString},
		{"gender", "", "must not be empty"},
	}
	v := newValidator(t)
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			_, err := v.Decode(body(t, map[string]any{tc.field: tc.value}))
			errs, ok := AsErrors(err)
			require.True(t, ok, "expected field errors, got %v", err)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.field, errs[0].Field)
			assert.Contains(t, errs[0].Message, tc.msg)
		})
	}
}

func TestDecodeReportsEveryMissingField(t *testing.T) {
	_, err := newValidator(t).Decode(body(t, map[string]any{"age": nil, "payment_method": nil}))
	errs, ok := AsErrors(err)
	require.True(t, ok)
	assert.True(t, errs.Has("age"))
	assert.True(t, errs.Has("payment_method"))
	assert.Len(t, errs, 2)
	assert.True(t, strings.HasPrefix(err.Error(), "validation failed"))
}

func TestClaimAmountZeroIsAllowed(t *testing.T) {
	app, err := newValidator(t).Decode(body(t, map[string]any{"claim_amount_last": 0.0}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, app.ClaimAmountLast)
}

func TestExtraRules(t *testing.T) {
	v := newValidator(t, Rule{
		Field:   "premium_amount",
		Expr:    "premium_amount < property_value",
		Message: "must be below property value",
	})
	_, err := v.Decode(body(t, map[string]any{"premium_amount": 300000.0}))
	errs, ok := AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "must be below property value", errs[0].Message)

	require.NoError(t, v.Check(ml.SampleApplication()))
}

func TestNewRejectsBadRules(t *testing.T) {
	_, err := New(Rule{Field: "age", Expr: "age +"})
	assert.Error(t, err)

	_, err = New(Rule{Field: "age", Expr: "age + 1"})
	assert.Error(t, err, "non-bool rule must be rejected")

	_, err = New(Rule{Field: "age", Expr: "unknown_field > 1"})
	assert.Error(t, err)

	_, err = New(Rule{Expr: "true"})
	assert.Error(t, err)
}
