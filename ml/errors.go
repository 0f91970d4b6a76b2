package ml

import (
	"errors"
	"fmt"
)

var (
	ErrArtifactMissing  = errors.New("artifact missing")
	ErrInvalidArtifact  = errors.New("invalid artifact")
	ErrMissingEncoder   = errors.New("missing encoder")
	ErrUnknownColumn    = errors.New("column not produced by feature builder")
	ErrColumnNotOrdered = errors.New("column missing from feature order")
	ErrNotNumeric       = errors.New("column value is not numeric")
	ErrShapeMismatch    = errors.New("feature vector shape mismatch")
	ErrModelNotLoaded   = errors.New("model not loaded")
	ErrNonFinite        = errors.New("model output is not finite")
)

// ColumnError ties a preprocessing failure to the column that caused it.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %s: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// SlotError reports an artifact slot that could not be loaded.
type SlotError struct {
	Slot Slot
	Path string
	Err  error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("artifact slot %q (%s): %v; regenerate the artifacts with the training export", e.Slot, e.Path, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// ShapeError is returned when a vector does not have the width a model was
// fitted on.
type ShapeError struct {
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v: model expects %d features, got %d", ErrShapeMismatch, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
