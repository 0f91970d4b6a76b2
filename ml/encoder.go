package ml

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EncodeOutcome tells which lookup step produced a label code.
type EncodeOutcome int

const (
	// EncodedExact means the value's plain string form was a known label.
	EncodedExact EncodeOutcome = iota
	// EncodedFloatForm means the value matched only in its one-fraction-digit
	// float form, e.g. 4 -> "4.0".
	EncodedFloatForm
	// EncodedFallback means the value was unseen and got the default code 0.
	EncodedFallback
)

func (o EncodeOutcome) String() string {
	switch o {
	case EncodedExact:
		return "exact"
	case EncodedFloatForm:
		return "float_form"
	case EncodedFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// FallbackCode is assigned to values the encoder never saw.
const FallbackCode = 0

// LabelEncoder maps a fixed vocabulary of string labels to their position.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("encoder has no classes")
	}
	index := make(map[string]int, len(classes))
	for i, class := range classes {
		if _, dup := index[class]; dup {
			return nil, fmt.Errorf("duplicate class %q", class)
		}
		index[class] = i
	}
	return &LabelEncoder{
		classes: append([]string(nil), classes...),
		index:   index,
	}, nil
}

func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Lookup returns the code of an exact label.
func (e *LabelEncoder) Lookup(label string) (int, bool) {
	code, ok := e.index[label]
	return code, ok
}

// Encode runs the three-step lookup: plain string form, then float string
// form, then FallbackCode. It never fails.
func (e *LabelEncoder) Encode(value any) (int, EncodeOutcome) {
	label, floatLabel, hasFloat := labelForms(value)
	if code, ok := e.Lookup(label); ok {
		return code, EncodedExact
	}
	if hasFloat {
		if code, ok := e.Lookup(floatLabel); ok {
			return code, EncodedFloatForm
		}
	}
	return FallbackCode, EncodedFallback
}

// EncoderSet holds one encoder per categorical column.
type EncoderSet map[string]*LabelEncoder

// NewEncoderSet builds encoders from column -> ordered classes.
func NewEncoderSet(classes map[string][]string) (EncoderSet, error) {
	set := make(EncoderSet, len(classes))
	for column, labels := range classes {
		enc, err := NewLabelEncoder(labels)
		if err != nil {
			return nil, &ColumnError{Column: column, Err: err}
		}
		set[column] = enc
	}
	return set, nil
}

func (s EncoderSet) Encode(column string, value any) (int, EncodeOutcome, error) {
	enc, ok := s[column]
	if !ok || enc == nil {
		return 0, EncodedFallback, &ColumnError{Column: column, Err: ErrMissingEncoder}
	}
	code, outcome := enc.Encode(value)
	return code, outcome, nil
}

// Classes returns a copy of every column's vocabulary.
func (s EncoderSet) Classes() map[string][]string {
	out := make(map[string][]string, len(s))
	for column, enc := range s {
		out[column] = enc.Classes()
	}
	return out
}

// labelForms returns the string form a value had when the encoders were
// fitted, plus its float form when the value is numeric.
func labelForms(value any) (string, string, bool) {
	switch v := value.(type) {
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return v, floatLabel(f), true
		}
		return v, "", false
	case int:
		return strconv.Itoa(v), floatLabel(float64(v)), true
	case int64:
		return strconv.FormatInt(v, 10), floatLabel(float64(v)), true
	case float64:
		s := floatLabel(v)
		return s, s, true
	case bool:
		if v {
			return "True", "1.0", true
		}
		return "False", "0.0", true
	default:
		return fmt.Sprint(v), "", false
	}
}

// floatLabel formats a float the way the training pipeline stringified floats:
// shortest round-trip digits, always with a fractional part.
func floatLabel(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
