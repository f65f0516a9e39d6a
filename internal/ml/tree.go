package ml

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a CART decision tree. Leaf nodes carry the
// positive-class probability of their training subset.
type treeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf"`
	Prob      float64   `json:"prob"`
}

func (n *treeNode) predict(row []float64) float64 {
	node := n
	for !node.Leaf {
		if node.Feature < len(row) && row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Prob
}

// growTree builds a gini-split CART tree on the index subset idx.
// featureSub > 0 limits each split to that many randomly chosen features
// (random-forest style); 0 considers all features.
func growTree(
	features [][]float64, labels []int, idx []int,
	depth, maxDepth, minLeaf, featureSub int, rng *rand.Rand,
) *treeNode {
	pos := 0
	for _, i := range idx {
		pos += labels[i]
	}
	prob := float64(pos) / float64(len(idx))

	if depth >= maxDepth || len(idx) < 2*minLeaf || pos == 0 || pos == len(idx) {
		return &treeNode{Leaf: true, Prob: prob}
	}

	dims := len(features[0])
	candidates := make([]int, dims)
	for d := range candidates {
		candidates[d] = d
	}
	if featureSub > 0 && featureSub < dims {
		rng.Shuffle(dims, func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		candidates = candidates[:featureSub]
	}

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	vals := make([]float64, 0, len(idx))
	for _, d := range candidates {
		vals = vals[:0]
		for _, i := range idx {
			vals = append(vals, features[i][d])
		}
		sort.Float64s(vals)
		for v := 1; v < len(vals); v++ {
			if vals[v] == vals[v-1] {
				continue
			}
			threshold := (vals[v] + vals[v-1]) / 2
			g := splitGini(features, labels, idx, d, threshold, minLeaf)
			if g < bestGini {
				bestGini, bestFeature, bestThreshold = g, d, threshold
			}
		}
	}
	if bestFeature < 0 {
		return &treeNode{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, i := range idx {
		if features[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      growTree(features, labels, left, depth+1, maxDepth, minLeaf, featureSub, rng),
		Right:     growTree(features, labels, right, depth+1, maxDepth, minLeaf, featureSub, rng),
		Prob:      prob,
	}
}

// splitGini returns the weighted gini impurity of a candidate split, or +Inf
// when either side falls under the leaf minimum.
func splitGini(features [][]float64, labels []int, idx []int, d int, threshold float64, minLeaf int) float64 {
	var lN, lPos, rN, rPos int
	for _, i := range idx {
		if features[i][d] <= threshold {
			lN++
			lPos += labels[i]
		} else {
			rN++
			rPos += labels[i]
		}
	}
	if lN < minLeaf || rN < minLeaf {
		return math.Inf(1)
	}
	gini := func(n, pos int) float64 {
		p := float64(pos) / float64(n)
		return 2 * p * (1 - p)
	}
	total := float64(lN + rN)
	return float64(lN)/total*gini(lN, lPos) + float64(rN)/total*gini(rN, rPos)
}
