package ml

import (
	"errors"
	"fmt"
)

// RandomForest averages the positive-class probability of its trees.
type RandomForest struct {
	Trees     []Tree  `json:"trees"`
	Features  int     `json:"n_features"`
	threshold float64
}

func (rf *RandomForest) Predict(features []float64) (int, float64, error) {
	if len(rf.Trees) == 0 {
		return 0, 0, ErrModelNotLoaded
	}
	if err := checkWidth(features, rf.Features); err != nil {
		return 0, 0, err
	}
	sum := 0.0
	for i, tree := range rf.Trees {
		p, err := tree.Evaluate(features)
		if err != nil {
			return 0, 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += p
	}
	p := clampProbability(sum / float64(len(rf.Trees)))
	return decide(p, rf.threshold), p, nil
}

func (rf *RandomForest) NumFeatures() int {
	return rf.Features
}

func (rf *RandomForest) validate() error {
	if len(rf.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i, tree := range rf.Trees {
		if err := tree.validate(rf.Features); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// GradientBoosting is an additive tree ensemble: init + learning_rate * sum.
type GradientBoosting struct {
	Init         float64 `json:"init"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
	Features     int     `json:"n_features"`
}

func (gb *GradientBoosting) Predict(features []float64) (float64, error) {
	if len(gb.Trees) == 0 {
		return 0, ErrModelNotLoaded
	}
	if err := checkWidth(features, gb.Features); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, tree := range gb.Trees {
		v, err := tree.Evaluate(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += v
	}
	return gb.Init + gb.LearningRate*sum, nil
}

func (gb *GradientBoosting) NumFeatures() int {
	return gb.Features
}

func (gb *GradientBoosting) validate() error {
	if len(gb.Trees) == 0 {
		return errors.New("ensemble has no trees")
	}
	if gb.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", gb.LearningRate)
	}
	for i, tree := range gb.Trees {
		if err := tree.validate(gb.Features); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
