package ml

import (
	"errors"
	"fmt"
)

// TreeNode is one node of a fitted tree stored as a flat array. Children always
// sit at a higher index than their parent.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

type Tree []TreeNode

// Evaluate walks the tree and returns the value of the reached leaf.
func (t Tree) Evaluate(features []float64) (float64, error) {
	if len(t) == 0 {
		return 0, ErrModelNotLoaded
	}
	idx := 0
	for {
		node := t[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, fmt.Errorf("%w: node %d reads feature %d of %d", ErrShapeMismatch, idx, node.FeatureIdx, len(features))
		}
		next := node.RightChild
		if features[node.FeatureIdx] <= node.Threshold {
			next = node.LeftChild
		}
		if next <= idx || next >= len(t) {
			return 0, errors.New("invalid tree state")
		}
		idx = next
	}
}

func (t Tree) validate(nFeatures int) error {
	if len(t) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range t {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || (nFeatures > 0 && node.FeatureIdx >= nFeatures) {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(t) {
				return fmt.Errorf("node %d: child index %d out of range", i, child)
			}
		}
	}
	return nil
}

// DecisionTree is a single classification tree whose leaves hold the
// positive-class probability.
type DecisionTree struct {
	Nodes     Tree    `json:"nodes"`
	Features  int     `json:"n_features"`
	threshold float64
}

func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	if err := checkWidth(features, dt.Features); err != nil {
		return 0, 0, err
	}
	p, err := dt.Nodes.Evaluate(features)
	if err != nil {
		return 0, 0, err
	}
	p = clampProbability(p)
	return decide(p, dt.threshold), p, nil
}

func (dt *DecisionTree) NumFeatures() int {
	return dt.Features
}

func (dt *DecisionTree) validate() error {
	return dt.Nodes.validate(dt.Features)
}

// RegressionTree is a single regression tree.
type RegressionTree struct {
	Nodes    Tree `json:"nodes"`
	Features int  `json:"n_features"`
}

func (rt *RegressionTree) Predict(features []float64) (float64, error) {
	if err := checkWidth(features, rt.Features); err != nil {
		return 0, err
	}
	return rt.Nodes.Evaluate(features)
}

func (rt *RegressionTree) NumFeatures() int {
	return rt.Features
}

func (rt *RegressionTree) validate() error {
	return rt.Nodes.validate(rt.Features)
}
