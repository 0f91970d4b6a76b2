package ml

import "math"

const (
	ColAge                  = "Age"
	ColGender               = "Gender"
	ColMaritalStatus        = "Marital_Status"
	ColUrbanizationLevel    = "Urbanization_Level"
	ColPolicyTerm           = "Policy_Term"
	ColClaimFrequency       = "Claim_Frequency"
	ColMaintenanceLevel     = "Maintenance_Level"
	ColBuildingAge          = "Building_Age"
	ColCustomerSatisfaction = "Customer_Satisfaction"
	ColHasSecuritySystem    = "Has_Security_System"
	ColConstructionType     = "Construction_Type"
	ColPolicyTenure         = "Policy_Tenure"
	ColPaymentMethod        = "Payment_Method"
	ColCreditScore          = "Credit_Score"
	ColFireRiskScore        = "Fire_Risk_Score"
	ColAreaRiskIndex        = "Area_Risk_Index"
	ColLogAnnualIncome      = "log_Annual_Income"
	ColLogPropertyValue     = "log_Property_Value"
	ColLogPremiumAmount     = "log_Premium_Amount"
	ColLogClaimAmountLast   = "log_Claim_Amount_Last"
)

// FeatureVector is one model-ready row. Values[i] belongs to Columns[i].
type FeatureVector struct {
	Columns []string
	Values  []float64
	// Unscaled holds the row after encoding and reordering, before the input
	// scaler ran.
	Unscaled []float64
	// Fallbacks lists the encoded columns whose value was not a known label and
	// therefore received the default code 0.
	Fallbacks []string
}

func (v FeatureVector) Len() int {
	return len(v.Values)
}

// Value returns the scaled value of the named column.
func (v FeatureVector) Value(column string) (float64, bool) {
	for i, name := range v.Columns {
		if name == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// UnscaledValue returns the pre-scaling value of the named column.
func (v FeatureVector) UnscaledValue(column string) (float64, bool) {
	for i, name := range v.Columns {
		if name == column {
			return v.Unscaled[i], true
		}
	}
	return 0, false
}

// FeatureNames returns every column the feature builder produces, in the order
// the reference models were trained on.
func FeatureNames() []string {
	return []string{
		ColAge,
		ColGender,
		ColMaritalStatus,
		ColUrbanizationLevel,
		ColPolicyTerm,
		ColClaimFrequency,
		ColMaintenanceLevel,
		ColBuildingAge,
		ColCustomerSatisfaction,
		ColHasSecuritySystem,
		ColConstructionType,
		ColPolicyTenure,
		ColPaymentMethod,
		ColCreditScore,
		ColFireRiskScore,
		ColAreaRiskIndex,
		ColLogAnnualIncome,
		ColLogPropertyValue,
		ColLogPremiumAmount,
		ColLogClaimAmountLast,
	}
}

// EncodedColumns returns the columns that go through label encoding.
func EncodedColumns() []string {
	return []string{
		ColGender,
		ColMaritalStatus,
		ColUrbanizationLevel,
		ColPolicyTerm,
		ColClaimFrequency,
		ColMaintenanceLevel,
		ColCustomerSatisfaction,
		ColHasSecuritySystem,
		ColConstructionType,
		ColPaymentMethod,
	}
}

// DefaultScaleFeatures returns the numeric columns standardized during
// training.
func DefaultScaleFeatures() []string {
	return []string{
		ColAge,
		ColBuildingAge,
		ColPolicyTenure,
		ColCreditScore,
		ColFireRiskScore,
		ColAreaRiskIndex,
		ColLogAnnualIncome,
		ColLogPropertyValue,
		ColLogPremiumAmount,
		ColLogClaimAmountLast,
	}
}

// AreaRiskIndex combines the flood and crime indices into the single composite
// column the models use.
func AreaRiskIndex(floodRiskIndex, crimeRateIndex float64) float64 {
	return (floodRiskIndex + crimeRateIndex) / 2
}

// rawColumns maps an application onto the derived column set. Encoded columns
// keep their original Go type so the encoder can reproduce their string form.
func rawColumns(a Application) map[string]any {
	return map[string]any{
		ColAge:                  a.Age,
		ColGender:               a.Gender,
		ColMaritalStatus:        a.MaritalStatus,
		ColUrbanizationLevel:    a.UrbanizationLevel,
		ColPolicyTerm:           a.PolicyTerm,
		ColClaimFrequency:       a.ClaimFrequency,
		ColMaintenanceLevel:     a.MaintenanceLevel,
		ColBuildingAge:          a.BuildingAge,
		ColCustomerSatisfaction: a.CustomerSatisfaction,
		ColHasSecuritySystem:    a.HasSecuritySystem,
		ColConstructionType:     a.ConstructionType,
		ColPolicyTenure:         a.PolicyTenure,
		ColPaymentMethod:        a.PaymentMethod,
		ColCreditScore:          a.CreditScore,
		ColFireRiskScore:        a.FireRiskScore,
		ColAreaRiskIndex:        AreaRiskIndex(a.FloodRiskIndex, a.CrimeRateIndex),
		ColLogAnnualIncome:      math.Log1p(a.AnnualIncome),
		ColLogPropertyValue:     math.Log1p(a.PropertyValue),
		ColLogPremiumAmount:     math.Log1p(a.PremiumAmount),
		ColLogClaimAmountLast:   math.Log1p(a.ClaimAmountLast),
	}
}
