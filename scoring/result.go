package scoring

import (
	"fmt"
	"strconv"
)

const (
	LabelHighRisk = "High Risk"
	LabelLowRisk  = "Low Risk"
)

// ClassificationResult is the risk category of one application.
type ClassificationResult struct {
	Category    int     `json:"risk_category"`
	Label       string  `json:"risk_label"`
	Probability float64 `json:"probability"`
	// Fallbacks lists encoded columns that got the default code.
	Fallbacks []string `json:"-"`
}

// RegressionResult is the expected claim cost of one application.
type RegressionResult struct {
	Cost      float64  `json:"expected_claim_cost"`
	Fallbacks []string `json:"-"`
}

// Score holds both results for one application.
type Score struct {
	Classification ClassificationResult `json:"classification"`
	Regression     RegressionResult     `json:"regression"`
}

// BatchError reports which record of a batch failed.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func riskLabel(category int) string {
	if category == 1 {
		return LabelHighRisk
	}
	return LabelLowRisk
}

// Round rounds v to the given number of decimal places, ties to even on the
// exact decimal value of v.
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
