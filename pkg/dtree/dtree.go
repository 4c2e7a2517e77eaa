// Package dtree implements a CART-style regression tree. It is the
// default model behind the predictor's pluggable fit/predict
// capability: splits minimize the summed squared error of the two
// partitions, leaf values are the median of the samples reaching the
// leaf, which keeps price predictions robust to outliers.
package dtree

import (
	"fmt"
	"math"
	"sort"
)

// Tree is a regression tree. Configure it before calling Fit.
type Tree struct {
	// MinSamplesLeaf is the minimum number of training samples each
	// leaf must hold.
	MinSamplesLeaf int
	// MaxDepth caps the tree depth.
	MaxDepth int

	root *node
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

// New creates a tree with the given leaf size and depth cap.
func New(minSamplesLeaf, maxDepth int) *Tree {
	if minSamplesLeaf < 1 {
		minSamplesLeaf = 1
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &Tree{
		MinSamplesLeaf: minSamplesLeaf,
		MaxDepth:       maxDepth,
	}
}

// Fit grows the tree on the given design matrix and targets.
func (t *Tree) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("dtree: empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("dtree: %d rows but %d targets", len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("dtree: row %d has %d features, expected %d", i, len(row), width)
		}
	}

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	t.root = t.build(X, y, indices, 0)
	return nil
}

// Fitted reports whether the tree has been trained.
func (t *Tree) Fitted() bool {
	return t.root != nil
}

// Predict returns the predicted target for one feature row.
func (t *Tree) Predict(x []float64) float64 {
	n := t.root
	for n != nil && !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	if n == nil {
		return 0
	}
	return n.value
}

// Score returns the coefficient of determination R² on the given set.
func (t *Tree) Score(X [][]float64, y []float64) float64 {
	if len(X) == 0 || len(X) != len(y) {
		return 0
	}

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, row := range X {
		diff := y[i] - t.Predict(row)
		ssRes += diff * diff
		dev := y[i] - mean
		ssTot += dev * dev
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func (t *Tree) build(X [][]float64, y []float64, indices []int, depth int) *node {
	if depth >= t.MaxDepth || len(indices) < 2*t.MinSamplesLeaf || allEqual(y, indices) {
		return &node{leaf: true, value: median(y, indices)}
	}

	feature, threshold, ok := t.bestSplit(X, y, indices)
	if !ok {
		return &node{leaf: true, value: median(y, indices)}
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      t.build(X, y, left, depth+1),
		right:     t.build(X, y, right, depth+1),
	}
}

// bestSplit scans every feature for the threshold minimizing the
// summed squared error of the partitions, honoring MinSamplesLeaf.
func (t *Tree) bestSplit(X [][]float64, y []float64, indices []int) (int, float64, bool) {
	n := len(indices)
	bestCost := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	values := make([]float64, n)
	targets := make([]float64, n)
	order := make([]int, n)

	for feature := 0; feature < len(X[indices[0]]); feature++ {
		for i, idx := range indices {
			values[i] = X[idx][feature]
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return values[order[a]] < values[order[b]]
		})
		for i, o := range order {
			targets[i] = y[indices[o]]
		}

		// prefix sums over the sorted targets
		sum, sumSq := 0.0, 0.0
		sums := make([]float64, n+1)
		sumSqs := make([]float64, n+1)
		for i := 0; i < n; i++ {
			sum += targets[i]
			sumSq += targets[i] * targets[i]
			sums[i+1] = sum
			sumSqs[i+1] = sumSq
		}

		for split := t.MinSamplesLeaf; split <= n-t.MinSamplesLeaf; split++ {
			lo := values[order[split-1]]
			hi := values[order[split]]
			if lo == hi {
				continue // no threshold separates identical values
			}

			leftN := float64(split)
			rightN := float64(n - split)
			leftSSE := sumSqs[split] - sums[split]*sums[split]/leftN
			rightSSE := (sumSqs[n] - sumSqs[split]) -
				(sums[n]-sums[split])*(sums[n]-sums[split])/rightN

			cost := leftSSE + rightSSE
			if cost < bestCost {
				bestCost = cost
				bestFeature = feature
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func allEqual(y []float64, indices []int) bool {
	for _, i := range indices[1:] {
		if y[i] != y[indices[0]] {
			return false
		}
	}
	return true
}

func median(y []float64, indices []int) float64 {
	vals := make([]float64, len(indices))
	for i, idx := range indices {
		vals[i] = y[idx]
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 0 {
		return (vals[mid-1] + vals[mid]) / 2
	}
	return vals[mid]
}
