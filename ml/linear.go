package ml

import (
	"errors"
	"math"
)

type linearTerms struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func (l linearTerms) score(features []float64) (float64, error) {
	if len(features) != len(l.Coefficients) {
		return 0, &ShapeError{Want: len(l.Coefficients), Got: len(features)}
	}
	z := l.Intercept
	for i, c := range l.Coefficients {
		z += c * features[i]
	}
	return z, nil
}

func (l linearTerms) validate() error {
	if len(l.Coefficients) == 0 {
		return errors.New("model has no coefficients")
	}
	return nil
}

// LogisticRegression is a binary classifier over a linear score.
type LogisticRegression struct {
	linearTerms
	threshold float64
}

func (lr *LogisticRegression) Predict(features []float64) (int, float64, error) {
	z, err := lr.score(features)
	if err != nil {
		return 0, 0, err
	}
	p := 1 / (1 + math.Exp(-z))
	return decide(p, lr.threshold), p, nil
}

func (lr *LogisticRegression) NumFeatures() int {
	return len(lr.Coefficients)
}

// LinearRegression predicts the scaled target as a linear score.
type LinearRegression struct {
	linearTerms
}

func (lr *LinearRegression) Predict(features []float64) (float64, error) {
	return lr.score(features)
}

func (lr *LinearRegression) NumFeatures() int {
	return len(lr.Coefficients)
}
