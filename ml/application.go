package ml

// Application is one raw insurance application as entered by a user.
// Every field is mandatory.
type Application struct {
	Age                  int     `json:"age"`
	Gender               string  `json:"gender"`
	MaritalStatus        string  `json:"marital_status"`
	UrbanizationLevel    string  `json:"urbanization_level"`
	PolicyTerm           int     `json:"policy_term"`
	ClaimFrequency       int     `json:"claim_frequency"`
	MaintenanceLevel     string  `json:"maintenance_level"`
	BuildingAge          int     `json:"building_age"`
	CustomerSatisfaction int     `json:"customer_satisfaction"`
	HasSecuritySystem    string  `json:"has_security_system"`
	ConstructionType     string  `json:"construction_type"`
	PolicyTenure         int     `json:"policy_tenure"`
	PaymentMethod        string  `json:"payment_method"`
	CreditScore          float64 `json:"credit_score"`
	FireRiskScore        float64 `json:"fire_risk_score"`
	FloodRiskIndex       float64 `json:"flood_risk_index"`
	CrimeRateIndex       float64 `json:"crime_rate_index"`
	AnnualIncome         float64 `json:"annual_income"`
	PropertyValue        float64 `json:"property_value"`
	PremiumAmount        float64 `json:"premium_amount"`
	ClaimAmountLast      float64 `json:"claim_amount_last"`
}

// SampleApplication returns the reference application used by the operator
// sanity check.
func SampleApplication() Application {
	return Application{
		Age:                  45,
		Gender:               "Male",
		MaritalStatus:        "Married",
		UrbanizationLevel:    "Urban",
		PolicyTerm:           10,
		ClaimFrequency:       2,
		MaintenanceLevel:     "Medium",
		BuildingAge:          15,
		CustomerSatisfaction: 4,
		HasSecuritySystem:    "Yes",
		ConstructionType:     "Brick Wall",
		PolicyTenure:         5,
		PaymentMethod:        "Online Payment",
		CreditScore:          650.0,
		FireRiskScore:        35.0,
		FloodRiskIndex:       40.0,
		CrimeRateIndex:       50.0,
		AnnualIncome:         50000.0,
		PropertyValue:        200000.0,
		PremiumAmount:        1200.0,
		ClaimAmountLast:      2000.0,
	}
}
