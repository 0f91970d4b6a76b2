package ml

import (
	"fmt"
)

// Preprocessor turns raw applications into model-ready feature vectors,
// reproducing the training-time pipeline.
type Preprocessor struct {
	bundle   *Bundle
	encoded  map[string]bool
	scaleIdx []int
}

func NewPreprocessor(bundle *Bundle) (*Preprocessor, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	encoded := make(map[string]bool)
	for _, column := range EncodedColumns() {
		encoded[column] = true
	}
	position := make(map[string]int, len(bundle.FeatureOrder))
	for i, column := range bundle.FeatureOrder {
		position[column] = i
	}
	scaleIdx := make([]int, len(bundle.ScaleFeatures))
	for i, column := range bundle.ScaleFeatures {
		scaleIdx[i] = position[column]
	}
	return &Preprocessor{
		bundle:   bundle,
		encoded:  encoded,
		scaleIdx: scaleIdx,
	}, nil
}

// Build derives the composite and log columns, label-encodes the categorical
// columns, lays everything out in feature order and standardizes the scale
// features.
func (p *Preprocessor) Build(a Application) (FeatureVector, error) {
	raw := rawColumns(a)
	order := p.bundle.FeatureOrder

	values := make([]float64, len(order))
	var fallbacks []string
	for i, column := range order {
		value, ok := raw[column]
		if !ok {
			return FeatureVector{}, &ColumnError{Column: column, Err: ErrUnknownColumn}
		}
		if p.encoded[column] {
			code, outcome, err := p.bundle.Encoders.Encode(column, value)
			if err != nil {
				return FeatureVector{}, err
			}
			if outcome == EncodedFallback {
				fallbacks = append(fallbacks, column)
			}
			values[i] = float64(code)
			continue
		}
		f, err := numeric(value)
		if err != nil {
			return FeatureVector{}, &ColumnError{Column: column, Err: err}
		}
		values[i] = f
	}

	unscaled := append([]float64(nil), values...)
	subset := make([]float64, len(p.scaleIdx))
	for j, idx := range p.scaleIdx {
		subset[j] = values[idx]
	}
	scaled, err := p.bundle.InputScaler.Transform(subset)
	if err != nil {
		return FeatureVector{}, err
	}
	for j, idx := range p.scaleIdx {
		values[idx] = scaled[j]
	}

	return FeatureVector{
		Columns:   append([]string(nil), order...),
		Values:    values,
		Unscaled:  unscaled,
		Fallbacks: fallbacks,
	}, nil
}

func (p *Preprocessor) FeatureOrder() []string {
	return append([]string(nil), p.bundle.FeatureOrder...)
}

func (p *Preprocessor) ScaleFeatures() []string {
	return append([]string(nil), p.bundle.ScaleFeatures...)
}

func numeric(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, value)
	}
}
