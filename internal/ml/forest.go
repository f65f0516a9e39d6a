package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest is the tree-ensemble member: bagged CART trees with random
// feature subsets per split.
type RandomForest struct {
	Trees []*treeNode `json:"trees"`

	NumTrees int   `json:"num_trees"`
	MaxDepth int   `json:"max_depth"`
	MinLeaf  int   `json:"min_leaf"`
	Seed     int64 `json:"seed"`
}

// NewRandomForest creates a forest with default hyperparameters.
func NewRandomForest() *RandomForest {
	return &RandomForest{NumTrees: 25, MaxDepth: 6, MinLeaf: 2, Seed: 1}
}

// Name implements Classifier.
func (m *RandomForest) Name() string { return "random_forest" }

// Trained implements Classifier.
func (m *RandomForest) Trained() bool { return len(m.Trees) > 0 }

// Train implements Classifier.
func (m *RandomForest) Train(features [][]float64, labels []int) error {
	dims, err := validateTrainingSet(features, labels)
	if err != nil {
		return fmt.Errorf("random forest: %w", err)
	}

	rng := rand.New(rand.NewSource(m.Seed))
	featureSub := int(math.Ceil(math.Sqrt(float64(dims))))
	n := len(features)

	m.Trees = make([]*treeNode, 0, m.NumTrees)
	for t := 0; t < m.NumTrees; t++ {
		// Bootstrap sample.
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		m.Trees = append(m.Trees, growTree(features, labels, idx, 0, m.MaxDepth, m.MinLeaf, featureSub, rng))
	}
	return nil
}

// PredictProba implements Classifier: the mean of per-tree leaf
// probabilities.
func (m *RandomForest) PredictProba(features []float64) (float64, error) {
	if !m.Trained() {
		return 0, ErrNotTrained
	}
	var sum float64
	for _, tree := range m.Trees {
		sum += tree.predict(features)
	}
	return sum / float64(len(m.Trees)), nil
}
