package ml

import (
	"errors"
	"math"
	"testing"
)

func TestStandardScalerRoundTrip(t *testing.T) {
	s := &StandardScaler{Mean: []float64{10, -2}, Scale: []float64{4, 0.5}}
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := []float64{18, -1}
	scaled, err := s.Transform(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaled[0] != 2 || scaled[1] != 2 {
		t.Fatalf("unexpected scaled values: %v", scaled)
	}
	back, err := s.Inverse(scaled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if math.Abs(back[i]-in[i]) > 1e-12 {
			t.Fatalf("round trip mismatch at %d: %v vs %v", i, back[i], in[i])
		}
	}
}

func TestStandardScalerScalarRequiresOneColumn(t *testing.T) {
	s := &StandardScaler{Mean: []float64{1, 2}, Scale: []float64{1, 1}}
	if _, err := s.InverseScalar(1); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	single := &StandardScaler{Mean: []float64{7.5}, Scale: []float64{2}}
	v, err := single.InverseScalar(0.25)
	if err != nil || v != 8 {
		t.Fatalf("InverseScalar = %v, %v", v, err)
	}
}

func TestStandardScalerValidate(t *testing.T) {
	cases := map[string]*StandardScaler{
		"empty":       {},
		"length":      {Mean: []float64{1, 2}, Scale: []float64{1}},
		"zero scale":  {Mean: []float64{1}, Scale: []float64{0}},
		"column name": {Columns: []string{"a", "b"}, Mean: []float64{1}, Scale: []float64{1}},
	}
	for name, s := range cases {
		if err := s.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestTransformShapeMismatch(t *testing.T) {
	s := &StandardScaler{Mean: []float64{1}, Scale: []float64{1}}
	if _, err := s.Transform([]float64{1, 2}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}
