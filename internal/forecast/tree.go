package forecast

import (
	"slices"
)

// regressionTree is a binary tree stored as a flat node slice; node 0 is the
// root.
type regressionTree struct {
	nodes []treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      int
	right     int
}

type treeParams struct {
	maxDepth    int
	minLeafSize int
}

// fitTree grows a least-squares regression tree on (x, y). Every feature is
// searched exhaustively with thresholds at midpoints between adjacent
// distinct values; a node becomes a leaf when it reaches maxDepth, cannot
// honour minLeafSize on both sides or no split reduces the squared error.
func fitTree(x [][]float64, y []float64, params treeParams) *regressionTree {
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t := &regressionTree{}
	t.grow(x, y, idx, 0, params)
	return t
}

func (t *regressionTree) grow(x [][]float64, y []float64, idx []int, depth int, params treeParams) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, treeNode{leaf: true, value: meanAt(y, idx)})

	if depth >= params.maxDepth || len(idx) < 2*params.minLeafSize {
		return id
	}

	feature, threshold, ok := bestSplit(x, y, idx, params.minLeafSize)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := t.grow(x, y, left, depth+1, params)
	r := t.grow(x, y, right, depth+1, params)
	t.nodes[id] = treeNode{feature: feature, threshold: threshold, left: l, right: r}
	return id
}

// bestSplit returns the feature and threshold with the largest reduction in
// squared error. Ties keep the first candidate found.
func bestSplit(x [][]float64, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += y[i]
	}
	parent := total * total / float64(n)

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0
	order := make([]int, n)

	for f := range x[idx[0]] {
		copy(order, idx)
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case x[a][f] < x[b][f]:
				return -1
			case x[a][f] > x[b][f]:
				return 1
			}
			return 0
		})

		var leftSum float64
		for k := 1; k < n; k++ {
			leftSum += y[order[k-1]]
			lo, hi := x[order[k-1]][f], x[order[k]][f]
			if lo == hi || k < minLeaf || n-k < minLeaf {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k) - parent
			// Relative tolerance keeps rounding noise from creating splits.
			if gain > bestGain && gain > 1e-12*(1+parent) {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *regressionTree) predict(row []float64) float64 {
	n := t.nodes[0]
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = t.nodes[n.left]
		} else {
			n = t.nodes[n.right]
		}
	}
	return n.value
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s float64
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}
