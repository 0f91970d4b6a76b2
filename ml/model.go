package ml

// Classifier returns the hard label and the positive-class probability for one
// feature vector.
type Classifier interface {
	Predict(features []float64) (int, float64, error)
}

// Regressor returns one scaled target value for one feature vector.
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// DefaultDecisionThreshold is the positive-class probability a classifier must
// exceed to return label 1.
const DefaultDecisionThreshold = 0.5

type featureCounter interface {
	NumFeatures() int
}

func checkWidth(features []float64, want int) error {
	if want > 0 && len(features) != want {
		return &ShapeError{Want: want, Got: len(features)}
	}
	return nil
}

func decide(probability, threshold float64) int {
	if probability > threshold {
		return 1
	}
	return 0
}

func clampProbability(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
