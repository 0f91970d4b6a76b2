package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	KindRandomForest     = "random_forest"
	KindDecisionTree     = "decision_tree"
	KindLogistic         = "logistic"
	KindGradientBoosting = "gradient_boosting"
	KindLinear           = "linear"
)

// LoadClassifier reads a fitted classifier of the given kind. A threshold <= 0
// selects DefaultDecisionThreshold.
func LoadClassifier(modelType, path string, threshold float64) (Classifier, error) {
	if threshold <= 0 {
		threshold = DefaultDecisionThreshold
	}
	switch modelType {
	case KindRandomForest:
		model := &RandomForest{}
		if err := readJSON(path, model); err != nil {
			return nil, err
		}
		if err := model.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		model.threshold = threshold
		return model, nil
	case KindDecisionTree:
		model := &DecisionTree{}
		if err := readJSON(path, model); err != nil {
			return nil, err
		}
		if err := model.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		model.threshold = threshold
		return model, nil
	case KindLogistic:
		model := &LogisticRegression{}
		if err := readJSON(path, model); err != nil {
			return nil, err
		}
		if err := model.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		model.threshold = threshold
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported classifier type %q", modelType)
	}
}

func LoadRegressor(modelType, path string) (Regressor, error) {
	switch modelType {
	case KindGradientBoosting:
		model := &GradientBoosting{}
		if err := readJSON(path, model); err != nil {
			return nil, err
		}
		if err := model.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return model, nil
	case KindDecisionTree:
		model := &RegressionTree{}
		if err := readJSON(path, model); err != nil {
			return nil, err
		}
		if err := model.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return model, nil
	case KindLinear:
		model := &LinearRegression{}
		if err := readJSON(path, model); err != nil {
			return nil, err
		}
		if err := model.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported regressor type %q", modelType)
	}
}

// NewLogisticRegression builds a classifier from in-memory coefficients.
func NewLogisticRegression(coefficients []float64, intercept, threshold float64) *LogisticRegression {
	if threshold <= 0 {
		threshold = DefaultDecisionThreshold
	}
	return &LogisticRegression{
		linearTerms: linearTerms{Coefficients: append([]float64(nil), coefficients...), Intercept: intercept},
		threshold:   threshold,
	}
}

// NewLinearRegression builds a regressor from in-memory coefficients.
func NewLinearRegression(coefficients []float64, intercept float64) *LinearRegression {
	return &LinearRegression{
		linearTerms: linearTerms{Coefficients: append([]float64(nil), coefficients...), Intercept: intercept},
	}
}

func readJSON(path string, v any) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return nil
}
