package ml

import (
	"errors"
	"testing"
)

func stump(feature int, threshold, left, right float64) Tree {
	return Tree{
		{FeatureIdx: feature, Threshold: threshold, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: left},
		{IsLeaf: true, Value: right},
	}
}

func TestTreeEvaluateGoesLeftOnEqual(t *testing.T) {
	tree := stump(0, 0.5, 1, 2)
	v, err := tree.Evaluate([]float64{0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected left leaf, got %v", v)
	}
	v, _ = tree.Evaluate([]float64{0.51})
	if v != 2 {
		t.Fatalf("expected right leaf, got %v", v)
	}
}

func TestTreeValidateRejectsBackEdges(t *testing.T) {
	tree := Tree{
		{FeatureIdx: 0, LeftChild: 0, RightChild: 1},
		{IsLeaf: true},
	}
	if err := tree.validate(1); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := tree.Evaluate([]float64{0}); err == nil {
		t.Fatalf("expected evaluation error")
	}
}

func TestDecisionTreePredict(t *testing.T) {
	model := &DecisionTree{Nodes: stump(1, 0, 0.1, 0.8), Features: 2, threshold: DefaultDecisionThreshold}
	label, p, err := model.Predict([]float64{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 || p != 0.8 {
		t.Fatalf("expected 1/0.8, got %d/%v", label, p)
	}
	if _, _, err := model.Predict([]float64{0}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestRandomForestAveragesTrees(t *testing.T) {
	model := &RandomForest{
		Trees:     []Tree{stump(0, 0, 0.25, 0.5), stump(0, 0, 0.25, 0.75)},
		Features:  1,
		threshold: DefaultDecisionThreshold,
	}
	label, p, err := model.Predict([]float64{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 || p != 0.625 {
		t.Fatalf("expected 1/0.625, got %d/%v", label, p)
	}
	label, p, _ = model.Predict([]float64{-1})
	if label != 0 || p != 0.25 {
		t.Fatalf("expected label 0 for p=%v", p)
	}
}

func TestThresholdIsStrict(t *testing.T) {
	model := &DecisionTree{Nodes: Tree{{IsLeaf: true, Value: 0.5}}, threshold: 0.5}
	label, _, err := model.Predict([]float64{0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("probability equal to the threshold must not be positive")
	}
}

func TestGradientBoostingPredict(t *testing.T) {
	model := &GradientBoosting{
		Init:         1,
		LearningRate: 0.5,
		Trees:        []Tree{stump(0, 0, -2, 2), {{IsLeaf: true, Value: 4}}},
		Features:     1,
	}
	v, err := model.Predict([]float64{3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 4 {
		t.Fatalf("expected 4, got %v", v)
	}
	if err := (&GradientBoosting{Trees: []Tree{{{IsLeaf: true}}}}).validate(); err == nil {
		t.Fatalf("expected error for zero learning rate")
	}
}

func TestLinearModels(t *testing.T) {
	clf := NewLogisticRegression([]float64{1, -1}, 0, 0)
	label, p, err := clf.Predict([]float64{2, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 || p != 0.5 {
		t.Fatalf("expected 0/0.5, got %d/%v", label, p)
	}
	reg := NewLinearRegression([]float64{2, 3}, 1)
	v, err := reg.Predict([]float64{1, 1})
	if err != nil || v != 6 {
		t.Fatalf("expected 6, got %v (%v)", v, err)
	}
	var shapeErr *ShapeError
	if _, err := reg.Predict([]float64{1}); !errors.As(err, &shapeErr) || shapeErr.Want != 2 {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestLoadClassifierUnknownKind(t *testing.T) {
	if _, err := LoadClassifier("svm", "testdata/artifacts/rf_classifier.json", 0); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := LoadRegressor(KindGradientBoosting, "testdata/artifacts/missing.json"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
