package ml

import (
	"errors"
	"fmt"
)

// StandardScaler is a fitted per-column affine transform (x - mean) / scale.
type StandardScaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

func (s *StandardScaler) Validate() error {
	if len(s.Mean) == 0 {
		return errors.New("scaler has no columns")
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler mean/scale length mismatch: %d vs %d", len(s.Mean), len(s.Scale))
	}
	if len(s.Columns) != 0 && len(s.Columns) != len(s.Mean) {
		return fmt.Errorf("scaler has %d column names for %d columns", len(s.Columns), len(s.Mean))
	}
	for i, scale := range s.Scale {
		if scale == 0 {
			return fmt.Errorf("scaler column %d has zero scale", i)
		}
	}
	return nil
}

func (s *StandardScaler) Width() int {
	return len(s.Mean)
}

func (s *StandardScaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.Mean) {
		return nil, fmt.Errorf("%w: scaler expects %d values, got %d", ErrShapeMismatch, len(s.Mean), len(values))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = ScaleValue(v, s.Mean[i], s.Scale[i])
	}
	return out, nil
}

func (s *StandardScaler) Inverse(values []float64) ([]float64, error) {
	if len(values) != len(s.Mean) {
		return nil, fmt.Errorf("%w: scaler expects %d values, got %d", ErrShapeMismatch, len(s.Mean), len(values))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = UnscaleValue(v, s.Mean[i], s.Scale[i])
	}
	return out, nil
}

// InverseScalar undoes a single-column scaler.
func (s *StandardScaler) InverseScalar(value float64) (float64, error) {
	if len(s.Mean) != 1 {
		return 0, fmt.Errorf("%w: scalar inverse on a %d-column scaler", ErrShapeMismatch, len(s.Mean))
	}
	out, err := s.Inverse([]float64{value})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// TransformScalar applies a single-column scaler.
func (s *StandardScaler) TransformScalar(value float64) (float64, error) {
	if len(s.Mean) != 1 {
		return 0, fmt.Errorf("%w: scalar transform on a %d-column scaler", ErrShapeMismatch, len(s.Mean))
	}
	out, err := s.Transform([]float64{value})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

func ScaleValue(value, mean, scale float64) float64 {
	return (value - mean) / scale
}

func UnscaleValue(value, mean, scale float64) float64 {
	return value*scale + mean
}
