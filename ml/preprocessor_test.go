package ml

import (
	"errors"
	"math"
	"testing"
)

func newFixturePreprocessor(t *testing.T) *Preprocessor {
	t.Helper()
	p, err := NewPreprocessor(loadFixtures(t).Bundle)
	if err != nil {
		t.Fatalf("new preprocessor: %v", err)
	}
	return p
}

func TestBuildSampleApplication(t *testing.T) {
	p := newFixturePreprocessor(t)
	vec, err := p.Build(SampleApplication())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec.Len() != 20 {
		t.Fatalf("expected 20 features, got %d", vec.Len())
	}
	for i, column := range p.FeatureOrder() {
		if vec.Columns[i] != column {
			t.Fatalf("column %d is %s, want %s", i, vec.Columns[i], column)
		}
	}

	if v, _ := vec.UnscaledValue(ColAreaRiskIndex); v != 45 {
		t.Fatalf("expected Area_Risk_Index 45, got %v", v)
	}
	if v, _ := vec.Value(ColAreaRiskIndex); math.Abs(v-(-0.2)) > 1e-12 {
		t.Fatalf("expected scaled Area_Risk_Index -0.2, got %v", v)
	}
	if v, _ := vec.UnscaledValue(ColLogAnnualIncome); math.Abs(v-10.8198) > 1e-4 {
		t.Fatalf("expected log_Annual_Income ~10.8198, got %v", v)
	}
	if v, _ := vec.Value(ColAge); v != 0 {
		t.Fatalf("expected scaled age 0, got %v", v)
	}

	codes := map[string]float64{
		ColGender:               1,
		ColMaritalStatus:        1,
		ColUrbanizationLevel:    2,
		ColPolicyTerm:           1,
		ColClaimFrequency:       2,
		ColMaintenanceLevel:     0,
		ColCustomerSatisfaction: 3,
		ColHasSecuritySystem:    1,
		ColConstructionType:     0,
		ColPaymentMethod:        4,
	}
	for column, want := range codes {
		got, ok := vec.Value(column)
		if !ok || got != want {
			t.Fatalf("%s encoded as %v, want %v", column, got, want)
		}
	}

	if len(vec.Fallbacks) != 1 || vec.Fallbacks[0] != ColMaintenanceLevel {
		t.Fatalf("expected Maintenance_Level fallback, got %v", vec.Fallbacks)
	}
}

func TestBuildUnseenCategoryFallsBack(t *testing.T) {
	p := newFixturePreprocessor(t)
	app := SampleApplication()
	app.MaritalStatus = "Complicated"
	vec, err := p.Build(app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := vec.Value(ColMaritalStatus); v != 0 {
		t.Fatalf("expected fallback code 0, got %v", v)
	}
	found := false
	for _, column := range vec.Fallbacks {
		if column == ColMaritalStatus {
			found = true
		}
	}
	if !found {
		t.Fatalf("Marital_Status missing from fallbacks %v", vec.Fallbacks)
	}
}

func TestBuildLogTransforms(t *testing.T) {
	p := newFixturePreprocessor(t)
	app := SampleApplication()
	app.ClaimAmountLast = 0
	vec, err := p.Build(app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]float64{
		ColLogAnnualIncome:    math.Log(1 + app.AnnualIncome),
		ColLogPropertyValue:   math.Log(1 + app.PropertyValue),
		ColLogPremiumAmount:   math.Log(1 + app.PremiumAmount),
		ColLogClaimAmountLast: 0,
	}
	for column, w := range want {
		got, _ := vec.UnscaledValue(column)
		if math.Abs(got-w) > 1e-9 {
			t.Fatalf("%s = %v, want %v", column, got, w)
		}
	}
}

func TestBuildFollowsCustomOrder(t *testing.T) {
	bundle := *loadFixtures(t).Bundle
	order := FeatureNames()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	bundle.FeatureOrder = order
	p, err := NewPreprocessor(&bundle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec, err := p.Build(SampleApplication())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec.Columns[0] != ColLogClaimAmountLast || vec.Columns[19] != ColAge {
		t.Fatalf("columns not reordered: %v", vec.Columns)
	}
	if v, _ := vec.UnscaledValue(ColAreaRiskIndex); v != 45 {
		t.Fatalf("expected Area_Risk_Index 45 after reorder, got %v", v)
	}
}

func TestNewPreprocessorRejectsMissingEncoder(t *testing.T) {
	bundle := *loadFixtures(t).Bundle
	encoders := EncoderSet{}
	for column, enc := range bundle.Encoders {
		if column != ColPaymentMethod {
			encoders[column] = enc
		}
	}
	bundle.Encoders = encoders
	if _, err := NewPreprocessor(&bundle); !errors.Is(err, ErrMissingEncoder) {
		t.Fatalf("expected ErrMissingEncoder, got %v", err)
	}
}

func TestNumericRejectsStrings(t *testing.T) {
	if _, err := numeric("12"); !errors.Is(err, ErrNotNumeric) {
		t.Fatalf("expected ErrNotNumeric, got %v", err)
	}
}
