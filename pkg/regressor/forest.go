package regressor

import (
	"errors"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Regressor は学習・予測の契約です。アルゴリズムの中身には依存しません。
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
	NumFeatures() int
}

// RandomForestRegressor はブートストラップした回帰木の平均で予測します。
type RandomForestRegressor struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Bootstrap       bool
	RandomState     int64

	Trees     []*DecisionTreeRegressor
	NFeatures int
}

// RandomForestOption functional config for RandomForestRegressor
type RandomForestOption func(*RandomForestRegressor)

func WithNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}
func WithMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = d }
}
func WithMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = k }
}
func WithBootstrap(b bool) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = b }
}
func WithRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

// NewRandomForestRegressor initializes the forest with the production defaults.
func NewRandomForestRegressor(opts ...RandomForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:     100,
		MaxDepth:        15,
		MinSamplesSplit: 10,
		MinSamplesLeaf:  4,
		Bootstrap:       true,
		RandomState:     42,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the forest. Trees are fitted concurrently, each with its own seed,
// so the result only depends on RandomState.
func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("randomforest: X and y length mismatch")
	}
	if rf.NEstimators < 1 {
		return errors.New("randomforest: NEstimators must be positive")
	}

	trees := make([]*DecisionTreeRegressor, rf.NEstimators)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < rf.NEstimators; i++ {
		idx := i
		g.Go(func() error {
			seed := rf.RandomState + int64(idx)
			treeRand := rand.New(rand.NewSource(seed))

			// ブートストラップは行のコピーではなく添字で行う
			sample := make([]int, n)
			for j := range sample {
				if rf.Bootstrap {
					sample[j] = treeRand.Intn(n)
				} else {
					sample[j] = j
				}
			}

			tree := NewDecisionTreeRegressor(
				WithTreeMaxDepth(rf.MaxDepth),
				WithTreeMinSamplesSplit(rf.MinSamplesSplit),
				WithTreeMinSamplesLeaf(rf.MinSamplesLeaf),
				WithTreeMaxFeatures(rf.MaxFeatures),
				WithTreeRandomState(seed),
			)
			if err := tree.FitIndices(X, y, sample); err != nil {
				return err
			}
			trees[idx] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rf.Trees = trees
	rf.NFeatures = len(X[0])
	return nil
}

// Predict returns the mean prediction of all trees. Trees are summed in index order.
func (rf *RandomForestRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(rf.Trees) == 0 {
		return out
	}
	for i, x := range X {
		s := 0.0
		for _, t := range rf.Trees {
			s += t.predictOne(x)
		}
		out[i] = s / float64(len(rf.Trees))
	}
	return out
}

// NumFeatures は学習時の特徴量数を返します。
func (rf *RandomForestRegressor) NumFeatures() int {
	return rf.NFeatures
}
