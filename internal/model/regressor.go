package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Regressor kinds.
const (
	RegressorRandomForest = "random_forest"
	RegressorDecisionTree = "decision_tree"
	RegressorLinear       = "linear"
)

// Regressor predicts one value from a full feature vector.
type Regressor interface {
	Predict(x []float64) (float64, error)
	NumFeatures() int
}

// RegressorSpec is the serialized form of every supported regressor.
type RegressorSpec struct {
	Kind      string    `json:"kind" yaml:"kind"`
	NFeatures int       `json:"n_features" yaml:"n_features"`
	Trees     []Tree    `json:"trees,omitempty" yaml:"trees,omitempty"`
	Coef      []float64 `json:"coef,omitempty" yaml:"coef,omitempty"`
	Intercept float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
}

// Build validates s and returns the matching Regressor.
func (s RegressorSpec) Build() (Regressor, error) {
	if s.NFeatures <= 0 {
		return nil, contractf("regressor", "n_features must be positive, got %d", s.NFeatures)
	}
	switch s.Kind {
	case RegressorRandomForest, RegressorDecisionTree:
		if len(s.Trees) == 0 {
			return nil, contractf("regressor", "%s has no trees", s.Kind)
		}
		if s.Kind == RegressorDecisionTree && len(s.Trees) != 1 {
			return nil, contractf("regressor", "decision_tree expects exactly one tree, got %d", len(s.Trees))
		}
		for i := range s.Trees {
			if err := s.Trees[i].validate(s.NFeatures); err != nil {
				return nil, contractf("regressor", "tree %d: %v", i, err)
			}
		}
		return &Forest{Trees: s.Trees, nFeatures: s.NFeatures}, nil
	case RegressorLinear:
		if len(s.Coef) != s.NFeatures {
			return nil, contractf("regressor", "linear has %d coefficients for %d features", len(s.Coef), s.NFeatures)
		}
		return &Linear{Coef: s.Coef, Intercept: s.Intercept}, nil
	default:
		return nil, contractf("regressor", "unsupported kind %q", s.Kind)
	}
}

// Tree is a fitted CART regression tree in flat array form.
// Node i is a leaf when ChildrenLeft[i] == -1; otherwise the walk goes left
// when x[Feature[i]] <= Threshold[i].
type Tree struct {
	ChildrenLeft  []int     `json:"children_left" yaml:"children_left"`
	ChildrenRight []int     `json:"children_right" yaml:"children_right"`
	Feature       []int     `json:"feature" yaml:"feature"`
	Threshold     []float64 `json:"threshold" yaml:"threshold"`
	Value         []float64 `json:"value" yaml:"value"`
}

func (t *Tree) validate(nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == -1 {
			if r != -1 {
				return fmt.Errorf("node %d: half leaf", i)
			}
			continue
		}
		// children always come after their parent in fitted trees, which also rules out cycles
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, f)
		}
	}
	return nil
}

// Predict walks the tree from the root to a leaf.
func (t *Tree) Predict(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// Forest averages its trees. A single-tree forest is a decision tree.
type Forest struct {
	Trees     []Tree
	nFeatures int
}

func (f *Forest) NumFeatures() int { return f.nFeatures }

func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.nFeatures {
		return 0, contractf("regressor", "expected %d features, got %d", f.nFeatures, len(x))
	}
	preds := make([]float64, len(f.Trees))
	for i := range f.Trees {
		preds[i] = f.Trees[i].Predict(x)
	}
	return stat.Mean(preds, nil), nil
}

// Linear is intercept + coef·x.
type Linear struct {
	Coef      []float64
	Intercept float64
}

func (l *Linear) NumFeatures() int { return len(l.Coef) }

func (l *Linear) Predict(x []float64) (float64, error) {
	if len(x) != len(l.Coef) {
		return 0, contractf("regressor", "expected %d features, got %d", len(l.Coef), len(x))
	}
	return floats.Dot(l.Coef, x) + l.Intercept, nil
}
