package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Slot names one persisted artifact.
type Slot string

const (
	SlotClassifier    Slot = "classifier"
	SlotRegressor     Slot = "regressor"
	SlotInputScaler   Slot = "input-scaler"
	SlotTargetScaler  Slot = "target-scaler"
	SlotEncoders      Slot = "encoder-set"
	SlotScaleFeatures Slot = "scale-feature-list"
	SlotFeatureOrder  Slot = "feature-order-list"
)

// Slots returns every slot in load order.
func Slots() []Slot {
	return []Slot{
		SlotEncoders,
		SlotFeatureOrder,
		SlotScaleFeatures,
		SlotInputScaler,
		SlotTargetScaler,
		SlotClassifier,
		SlotRegressor,
	}
}

// DefaultSlotFiles returns the file name each slot is stored under.
func DefaultSlotFiles() map[Slot]string {
	return map[Slot]string{
		SlotClassifier:    "rf_classifier.json",
		SlotRegressor:     "gb_regressor.json",
		SlotInputScaler:   "scaler_X.json",
		SlotTargetScaler:  "scaler_y.json",
		SlotEncoders:      "label_encoders.json",
		SlotScaleFeatures: "scale_features.json",
		SlotFeatureOrder:  "feature_order.json",
	}
}

// ArtifactConfig locates the artifact bundle on disk.
type ArtifactConfig struct {
	Dir               string
	Files             map[Slot]string
	ClassifierType    string
	RegressorType     string
	DecisionThreshold float64
}

func DefaultArtifactConfig(dir string) ArtifactConfig {
	return ArtifactConfig{
		Dir:               dir,
		Files:             DefaultSlotFiles(),
		ClassifierType:    KindRandomForest,
		RegressorType:     KindGradientBoosting,
		DecisionThreshold: DefaultDecisionThreshold,
	}
}

// Path resolves a slot to its file, falling back to the default file name.
func (c ArtifactConfig) Path(slot Slot) string {
	name := c.Files[slot]
	if name == "" {
		name = DefaultSlotFiles()[slot]
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// Bundle is the fitted preprocessing state. It is never mutated after load.
type Bundle struct {
	Encoders      EncoderSet
	InputScaler   *StandardScaler
	TargetScaler  *StandardScaler
	FeatureOrder  []string
	ScaleFeatures []string
}

// Validate checks that the metadata lines up with the columns the feature
// builder produces. Any failure here is a configuration error.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: bundle is nil", ErrInvalidArtifact)
	}
	produced := make(map[string]bool)
	for _, name := range FeatureNames() {
		produced[name] = true
	}

	ordered := make(map[string]bool, len(b.FeatureOrder))
	for _, column := range b.FeatureOrder {
		if ordered[column] {
			return &ColumnError{Column: column, Err: fmt.Errorf("%w: duplicate in feature order", ErrInvalidArtifact)}
		}
		if !produced[column] {
			return &ColumnError{Column: column, Err: ErrUnknownColumn}
		}
		ordered[column] = true
	}
	for _, column := range FeatureNames() {
		if !ordered[column] {
			return &ColumnError{Column: column, Err: ErrColumnNotOrdered}
		}
	}

	if b.InputScaler == nil {
		return fmt.Errorf("%w: input scaler is nil", ErrInvalidArtifact)
	}
	if err := b.InputScaler.Validate(); err != nil {
		return fmt.Errorf("%w: input scaler: %v", ErrInvalidArtifact, err)
	}
	if b.InputScaler.Width() != len(b.ScaleFeatures) {
		return fmt.Errorf("%w: input scaler has %d columns, scale features list has %d",
			ErrInvalidArtifact, b.InputScaler.Width(), len(b.ScaleFeatures))
	}
	seen := make(map[string]bool, len(b.ScaleFeatures))
	for i, column := range b.ScaleFeatures {
		if !ordered[column] {
			return &ColumnError{Column: column, Err: fmt.Errorf("%w: scale feature not in feature order", ErrUnknownColumn)}
		}
		if seen[column] {
			return &ColumnError{Column: column, Err: fmt.Errorf("%w: duplicate scale feature", ErrInvalidArtifact)}
		}
		seen[column] = true
		if len(b.InputScaler.Columns) > 0 && b.InputScaler.Columns[i] != column {
			return &ColumnError{Column: column, Err: fmt.Errorf("%w: input scaler column %d is %s",
				ErrInvalidArtifact, i, b.InputScaler.Columns[i])}
		}
	}

	if b.TargetScaler == nil {
		return fmt.Errorf("%w: target scaler is nil", ErrInvalidArtifact)
	}
	if err := b.TargetScaler.Validate(); err != nil {
		return fmt.Errorf("%w: target scaler: %v", ErrInvalidArtifact, err)
	}
	if b.TargetScaler.Width() != 1 {
		return fmt.Errorf("%w: target scaler must have exactly one column, has %d", ErrInvalidArtifact, b.TargetScaler.Width())
	}

	for _, column := range EncodedColumns() {
		if enc, ok := b.Encoders[column]; !ok || enc == nil {
			return &ColumnError{Column: column, Err: ErrMissingEncoder}
		}
	}
	return nil
}

// Artifacts is the complete immutable serving state: preprocessing bundle and
// both fitted models.
type Artifacts struct {
	Bundle         *Bundle
	Classifier     Classifier
	Regressor      Regressor
	ClassifierType string
	RegressorType  string
	Threshold      float64
}

// LoadArtifacts reads and cross-checks every slot. All missing slots are
// reported together.
func LoadArtifacts(cfg ArtifactConfig) (*Artifacts, error) {
	var missing []error
	for _, slot := range Slots() {
		path := cfg.Path(slot)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, &SlotError{Slot: slot, Path: path, Err: fmt.Errorf("%w: %v", ErrArtifactMissing, err)})
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	bundle := &Bundle{}

	var classes map[string][]string
	if err := readSlot(cfg, SlotEncoders, &classes); err != nil {
		return nil, err
	}
	encoders, err := NewEncoderSet(classes)
	if err != nil {
		return nil, &SlotError{Slot: SlotEncoders, Path: cfg.Path(SlotEncoders), Err: fmt.Errorf("%w: %v", ErrInvalidArtifact, err)}
	}
	bundle.Encoders = encoders

	if err := readSlot(cfg, SlotFeatureOrder, &bundle.FeatureOrder); err != nil {
		return nil, err
	}
	if err := readSlot(cfg, SlotScaleFeatures, &bundle.ScaleFeatures); err != nil {
		return nil, err
	}
	bundle.InputScaler = &StandardScaler{}
	if err := readSlot(cfg, SlotInputScaler, bundle.InputScaler); err != nil {
		return nil, err
	}
	bundle.TargetScaler = &StandardScaler{}
	if err := readSlot(cfg, SlotTargetScaler, bundle.TargetScaler); err != nil {
		return nil, err
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("artifact metadata: %w", err)
	}
	if len(bundle.InputScaler.Columns) == 0 {
		bundle.InputScaler.Columns = append([]string(nil), bundle.ScaleFeatures...)
	}

	clfType := cfg.ClassifierType
	if clfType == "" {
		clfType = KindRandomForest
	}
	regType := cfg.RegressorType
	if regType == "" {
		regType = KindGradientBoosting
	}
	threshold := cfg.DecisionThreshold
	if threshold <= 0 {
		threshold = DefaultDecisionThreshold
	}

	clf, err := LoadClassifier(clfType, cfg.Path(SlotClassifier), threshold)
	if err != nil {
		return nil, &SlotError{Slot: SlotClassifier, Path: cfg.Path(SlotClassifier), Err: err}
	}
	reg, err := LoadRegressor(regType, cfg.Path(SlotRegressor))
	if err != nil {
		return nil, &SlotError{Slot: SlotRegressor, Path: cfg.Path(SlotRegressor), Err: err}
	}

	artifacts := &Artifacts{
		Bundle:         bundle,
		Classifier:     clf,
		Regressor:      reg,
		ClassifierType: clfType,
		RegressorType:  regType,
		Threshold:      threshold,
	}
	if err := artifacts.checkModelWidths(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (a *Artifacts) checkModelWidths() error {
	want := len(a.Bundle.FeatureOrder)
	if fc, ok := a.Classifier.(featureCounter); ok && fc.NumFeatures() > 0 && fc.NumFeatures() != want {
		return fmt.Errorf("%w: classifier fitted on %d features, feature order has %d", ErrShapeMismatch, fc.NumFeatures(), want)
	}
	if fc, ok := a.Regressor.(featureCounter); ok && fc.NumFeatures() > 0 && fc.NumFeatures() != want {
		return fmt.Errorf("%w: regressor fitted on %d features, feature order has %d", ErrShapeMismatch, fc.NumFeatures(), want)
	}
	return nil
}

func readSlot(cfg ArtifactConfig, slot Slot, v any) error {
	path := cfg.Path(slot)
	if err := readJSON(path, v); err != nil {
		return &SlotError{Slot: slot, Path: path, Err: err}
	}
	return nil
}
