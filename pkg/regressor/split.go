package regressor

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit は seed で決まる並びで n 行を学習用とテスト用の添字に分けます。
// テスト件数は ceil(n*testFraction) で、学習用に最低1行を残します。
func TrainTestSplit(n int, testFraction float64, seed int64) (trainIdx, testIdx []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("split: need at least 2 rows, got %d", n)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("split: test fraction must be in (0, 1), got %v", testFraction)
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n {
		nTest = n - 1
	}
	indices := rand.New(rand.NewSource(seed)).Perm(n)
	testIdx = append([]int(nil), indices[:nTest]...)
	trainIdx = append([]int(nil), indices[nTest:]...)
	return trainIdx, testIdx, nil
}

func takeRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

func takeValues(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
