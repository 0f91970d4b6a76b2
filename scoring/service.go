package scoring

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/wwwlqh/insurance-risk-modeling/ml"
)

const (
	probabilityPlaces = 4
	costPlaces        = 2
)

// Options tune a Service. The zero value disables the cache and logging.
type Options struct {
	CacheSize int
	Logger    *zap.Logger
}

// Service runs the feature builder and both models. It is safe for concurrent
// use; nothing it holds is written after NewService returns.
type Service struct {
	artifacts *ml.Artifacts
	pre       *ml.Preprocessor
	logger    *zap.Logger

	classifications *lru.Cache[ml.Application, ClassificationResult]
	costs           *lru.Cache[ml.Application, RegressionResult]
}

func NewService(artifacts *ml.Artifacts, opts Options) (*Service, error) {
	if artifacts == nil || artifacts.Classifier == nil || artifacts.Regressor == nil {
		return nil, ml.ErrModelNotLoaded
	}
	pre, err := ml.NewPreprocessor(artifacts.Bundle)
	if err != nil {
		return nil, fmt.Errorf("feature builder: %w", err)
	}
	if opts.CacheSize < 0 {
		return nil, fmt.Errorf("cache size must not be negative, got %d", opts.CacheSize)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		artifacts: artifacts,
		pre:       pre,
		logger:    logger,
	}
	if opts.CacheSize > 0 {
		if s.classifications, err = lru.New[ml.Application, ClassificationResult](opts.CacheSize); err != nil {
			return nil, err
		}
		if s.costs, err = lru.New[ml.Application, RegressionResult](opts.CacheSize); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Classify returns the risk category and rounded positive-class probability.
func (s *Service) Classify(app ml.Application) (ClassificationResult, error) {
	if s.classifications != nil {
		if res, ok := s.classifications.Get(app); ok {
			return res, nil
		}
	}

	vec, err := s.build(app)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classify: %w", err)
	}
	category, probability, err := s.artifacts.Classifier.Predict(vec.Values)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("classify: %w", err)
	}
	if math.IsNaN(probability) {
		return ClassificationResult{}, fmt.Errorf("classify: %w: probability is NaN", ml.ErrNonFinite)
	}
	if probability < 0 || probability > 1 {
		return ClassificationResult{}, fmt.Errorf("classify: probability %v outside [0,1]", probability)
	}

	res := ClassificationResult{
		Category:    category,
		Label:       riskLabel(category),
		Probability: Round(probability, probabilityPlaces),
		Fallbacks:   vec.Fallbacks,
	}
	if s.classifications != nil {
		s.classifications.Add(app, res)
	}
	return res, nil
}

// EstimateCost returns the expected claim cost in currency units.
func (s *Service) EstimateCost(app ml.Application) (RegressionResult, error) {
	if s.costs != nil {
		if res, ok := s.costs.Get(app); ok {
			return res, nil
		}
	}

	vec, err := s.build(app)
	if err != nil {
		return RegressionResult{}, fmt.Errorf("estimate cost: %w", err)
	}
	scaled, err := s.artifacts.Regressor.Predict(vec.Values)
	if err != nil {
		return RegressionResult{}, fmt.Errorf("estimate cost: %w", err)
	}
	logCost, err := s.artifacts.Bundle.TargetScaler.InverseScalar(scaled)
	if err != nil {
		return RegressionResult{}, fmt.Errorf("estimate cost: %w", err)
	}
	cost := math.Expm1(logCost)
	if !finite(cost) {
		return RegressionResult{}, fmt.Errorf("estimate cost: %w: regressor output %v gives cost %v", ml.ErrNonFinite, scaled, cost)
	}

	res := RegressionResult{
		Cost:      Round(cost, costPlaces),
		Fallbacks: vec.Fallbacks,
	}
	if s.costs != nil {
		s.costs.Add(app, res)
	}
	return res, nil
}

// ScoreBatch classifies and costs every application, stopping at the first
// failure.
func (s *Service) ScoreBatch(apps []ml.Application) ([]Score, error) {
	scores := make([]Score, 0, len(apps))
	for i, app := range apps {
		cls, err := s.Classify(app)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		cost, err := s.EstimateCost(app)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		scores = append(scores, Score{Classification: cls, Regression: cost})
	}
	return scores, nil
}

// Build exposes the feature vector for diagnostics.
func (s *Service) Build(app ml.Application) (ml.FeatureVector, error) {
	return s.pre.Build(app)
}

func (s *Service) build(app ml.Application) (ml.FeatureVector, error) {
	vec, err := s.pre.Build(app)
	if err != nil {
		var colErr *ml.ColumnError
		if errors.As(err, &colErr) {
			s.logger.Error("feature build failed", zap.String("column", colErr.Column), zap.Error(err))
		}
		return ml.FeatureVector{}, err
	}
	if len(vec.Fallbacks) > 0 {
		s.logger.Debug("unseen category encoded as default", zap.Strings("columns", vec.Fallbacks))
	}
	return vec, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ModelInfo describes the loaded bundle.
type ModelInfo struct {
	FeatureOrder      []string            `json:"feature_order"`
	ScaleFeatures     []string            `json:"scale_features"`
	Encoders          map[string][]string `json:"encoders"`
	ClassifierType    string              `json:"classifier_type"`
	RegressorType     string              `json:"regressor_type"`
	DecisionThreshold float64             `json:"decision_threshold"`
	CacheEnabled      bool                `json:"cache_enabled"`
}

func (s *Service) Info() ModelInfo {
	return ModelInfo{
		FeatureOrder:      s.pre.FeatureOrder(),
		ScaleFeatures:     s.pre.ScaleFeatures(),
		Encoders:          s.artifacts.Bundle.Encoders.Classes(),
		ClassifierType:    s.artifacts.ClassifierType,
		RegressorType:     s.artifacts.RegressorType,
		DecisionThreshold: s.artifacts.Threshold,
		CacheEnabled:      s.classifications != nil,
	}
}
