package regressor

import (
	"errors"
	"math/rand"
	"sort"
)

// TreeNode は平坦化された回帰木のノードです。Left<0 なら葉です。
type TreeNode struct {
	Feature   int
	Threshold float64 // x <= Threshold なら左
	Left      int
	Right     int
	Value     float64
	Samples   int
}

// DecisionTreeRegressor はMSE基準のCART回帰木です。
type DecisionTreeRegressor struct {
	MaxDepth        int // 0 => 制限なし
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => 全特徴量
	RandomState     int64

	Nodes     []TreeNode
	NFeatures int
}

// TreeOption functional config
type TreeOption func(*DecisionTreeRegressor)

func WithTreeMaxDepth(d int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MaxDepth = d }
}
func WithTreeMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithTreeMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithTreeMaxFeatures(k int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MaxFeatures = k }
}
func WithTreeRandomState(seed int64) TreeOption {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor returns a tree with sklearn-like defaults.
func NewDecisionTreeRegressor(opts ...TreeOption) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit は全行で木を学習します。
func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.FitIndices(X, y, idx)
}

// FitIndices は idx で指定した行（重複可、ブートストラップ用）で木を学習します。
func (t *DecisionTreeRegressor) FitIndices(X [][]float64, y []float64, idx []int) error {
	if len(X) == 0 || len(idx) == 0 {
		return errors.New("dtree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("dtree: X and y length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("dtree: inconsistent number of features in X rows")
		}
	}
	t.NFeatures = p
	t.Nodes = t.Nodes[:0]
	rnd := rand.New(rand.NewSource(t.RandomState))
	t.build(X, y, append([]int(nil), idx...), 0, rnd)
	return nil
}

// Predict returns one prediction per row.
func (t *DecisionTreeRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = t.predictOne(x)
	}
	return out
}

func (t *DecisionTreeRegressor) predictOne(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	n := 0
	for t.Nodes[n].Left >= 0 {
		node := t.Nodes[n]
		if x[node.Feature] <= node.Threshold {
			n = node.Left
		} else {
			n = node.Right
		}
	}
	return t.Nodes[n].Value
}

type treeSplit struct {
	feature   int
	threshold float64
	sse       float64
	found     bool
}

func (t *DecisionTreeRegressor) build(X [][]float64, y []float64, idx []int, depth int, rnd *rand.Rand) int {
	n := len(idx)
	var sum, sumSq float64
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	mean := sum / float64(n)
	parentSSE := sumSq - sum*sum/float64(n)

	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{Left: -1, Right: -1, Value: mean, Samples: n})

	if (t.MaxDepth > 0 && depth >= t.MaxDepth) ||
		n < t.MinSamplesSplit || n < 2*t.MinSamplesLeaf || isConstant(y, idx) {
		return id
	}

	best := t.findSplit(X, y, idx, t.candidateFeatures(rnd))
	if !best.found || parentSSE-best.sse <= 1e-12*(1+parentSSE) {
		return id
	}

	leftIdx := make([]int, 0, n)
	rightIdx := make([]int, 0, n)
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	left := t.build(X, y, leftIdx, depth+1, rnd)
	right := t.build(X, y, rightIdx, depth+1, rnd)
	t.Nodes[id].Feature = best.feature
	t.Nodes[id].Threshold = best.threshold
	t.Nodes[id].Left = left
	t.Nodes[id].Right = right
	return id
}

// candidateFeatures は分割を試す特徴量を返します。MaxFeatures 指定時は無作為に選びます。
func (t *DecisionTreeRegressor) candidateFeatures(rnd *rand.Rand) []int {
	p := t.NFeatures
	feats := make([]int, p)
	for j := range feats {
		feats[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rnd.Shuffle(p, func(a, b int) { feats[a], feats[b] = feats[b], feats[a] })
		feats = feats[:t.MaxFeatures]
		sort.Ints(feats)
	}
	return feats
}

// findSplit は二乗誤差の合計が最小になる分割を探します。
func (t *DecisionTreeRegressor) findSplit(X [][]float64, y []float64, idx []int, feats []int) treeSplit {
	n := len(idx)
	minLeaf := t.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}
	best := treeSplit{}
	sorted := make([]int, n)

	var total, totalSq float64
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}

	for _, f := range feats {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		var leftSum, leftSq float64
		for s := 1; s < n; s++ {
			yi := y[sorted[s-1]]
			leftSum += yi
			leftSq += yi * yi
			if s < minLeaf || n-s < minLeaf {
				continue
			}
			lo, hi := X[sorted[s-1]][f], X[sorted[s]][f]
			if lo == hi {
				continue
			}
			nl, nr := float64(s), float64(n-s)
			rightSum, rightSq := total-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if !best.found || sse < best.sse {
				thr := lo + (hi-lo)/2
				if thr >= hi {
					thr = lo
				}
				best = treeSplit{feature: f, threshold: thr, sse: sse, found: true}
			}
		}
	}
	return best
}

func isConstant(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
