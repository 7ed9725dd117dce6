package main

import (
	"math"
	"sort"
)

// treeModel is a CART-style binary classifier: greedy gini splits,
// pre-pruned by a complexity parameter. A split is kept only when its
// impurity reduction, scaled by the fraction of rows reaching the node,
// exceeds cp times the root impurity. Per-feature importance accumulates
// the same scaled reductions across all accepted splits.
type treeModel struct {
	cp       float64
	minSplit int
	maxDepth int

	root       *treeNode
	importance []float64
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	prob      float64 // positive fraction at this node
}

func newTree(cp float64) *treeModel {
	return &treeModel{cp: cp, minSplit: 20, maxDepth: 30}
}

func (m *treeModel) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return nil
	}
	m.importance = make([]float64, len(X[0]))

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	rootGini := giniOf(y, idx)
	m.root = m.grow(X, y, idx, rootGini, len(X), 0)
	return nil
}

func (m *treeModel) grow(X [][]float64, y []int, idx []int, rootGini float64, total, depth int) *treeNode {
	node := &treeNode{leaf: true, prob: posFraction(y, idx)}
	if len(idx) < m.minSplit || depth >= m.maxDepth || node.prob == 0 || node.prob == 1 {
		return node
	}

	g := giniOf(y, idx)
	feature, threshold, gain := m.bestSplit(X, y, idx, g)
	// Scale by the node's share of all rows, as the pruning rule compares
	// against the root impurity of the whole training set.
	improve := gain * float64(len(idx)) / float64(total)
	if feature < 0 || improve <= m.cp*rootGini {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	m.importance[feature] += improve
	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = m.grow(X, y, left, rootGini, total, depth+1)
	node.right = m.grow(X, y, right, rootGini, total, depth+1)
	return node
}

const maxSplitThresholds = 32

// bestSplit returns the (feature, threshold) pair maximizing the impurity
// reduction within this node, or feature -1 when no split separates rows.
func (m *treeModel) bestSplit(X [][]float64, y []int, idx []int, parentGini float64) (int, float64, float64) {
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	n := float64(len(idx))

	for f := 0; f < len(X[0]); f++ {
		for _, t := range candidateThresholds(X, idx, f) {
			var lPos, lN, rPos, rN int
			for _, i := range idx {
				if X[i][f] <= t {
					lN++
					lPos += y[i]
				} else {
					rN++
					rPos += y[i]
				}
			}
			if lN == 0 || rN == 0 {
				continue
			}
			gl := giniCounts(lPos, lN)
			gr := giniCounts(rPos, rN)
			gain := parentGini - (float64(lN)*gl+float64(rN)*gr)/n
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, t, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

// candidateThresholds returns midpoints between distinct sorted values of
// the feature, capped at maxSplitThresholds by quantile subsampling so the
// continuous cost column stays tractable.
func candidateThresholds(X [][]float64, idx []int, f int) []float64 {
	vals := make([]float64, len(idx))
	for i, id := range idx {
		vals[i] = X[id][f]
	}
	sort.Float64s(vals)

	uniq := vals[:0]
	for i, v := range vals {
		if i == 0 || v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}

	mids := make([]float64, 0, len(uniq)-1)
	for i := 1; i < len(uniq); i++ {
		mids = append(mids, (uniq[i-1]+uniq[i])/2)
	}
	if len(mids) <= maxSplitThresholds {
		return mids
	}
	out := make([]float64, maxSplitThresholds)
	for i := range out {
		out[i] = mids[i*len(mids)/maxSplitThresholds]
	}
	return out
}

func (m *treeModel) PredictProb(X [][]float64) []float64 {
	probs := make([]float64, len(X))
	for i, row := range X {
		node := m.root
		for node != nil && !node.leaf {
			if row[node.feature] <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		if node != nil {
			probs[i] = node.prob
		}
	}
	return probs
}

// FeatureImportance is one entry of the variable-importance ranking.
type FeatureImportance struct {
	Feature    string
	Importance float64
}

// Importances returns the cumulative impurity reductions per feature,
// descending, skipping features never used in a split.
func (m *treeModel) Importances(names []string) []FeatureImportance {
	var out []FeatureImportance
	for f, imp := range m.importance {
		if imp > 0 {
			out = append(out, FeatureImportance{Feature: names[f], Importance: imp})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Importance != out[b].Importance {
			return out[a].Importance > out[b].Importance
		}
		return out[a].Feature < out[b].Feature
	})
	return out
}

// treeGrid sweeps the complexity parameter from 0.001 to 0.3 in steps of
// 0.01 (30 candidates).
func treeGrid() []Candidate {
	var grid []Candidate
	for cp := 0.001; cp <= 0.3; cp += 0.01 {
		c := cp
		grid = append(grid, Candidate{
			Params: map[string]float64{"cp": c},
			Build:  func() Classifier { return newTree(c) },
		})
	}
	return grid
}

func posFraction(y []int, idx []int) float64 {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	return float64(pos) / float64(len(idx))
}

func giniOf(y []int, idx []int) float64 {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	return giniCounts(pos, len(idx))
}

func giniCounts(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	g := 2 * p * (1 - p)
	if math.IsNaN(g) {
		return 0
	}
	return g
}
