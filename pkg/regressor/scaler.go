package regressor

import (
	"fmt"
	"math"
)

// StandardScaler は列ごとに平均0・分散1へ標準化します。
// 分散0の列はスケール1として扱います。
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// NewStandardScaler は未学習のスケーラを返します。
func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fitted は Fit 済みかどうかを返します。
func (s *StandardScaler) Fitted() bool {
	return s != nil && len(s.Mean) > 0 && len(s.Mean) == len(s.Scale)
}

// Fit は列の平均と（母集団）標準偏差を求めます。
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("scaler: empty X")
	}
	r, c := len(X), len(X[0])
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			s.Mean[j] += X[i][j]
		}
		s.Mean[j] /= float64(r)
		v := 0.0
		for i := 0; i < r; i++ {
			d := X[i][j] - s.Mean[j]
			v += d * d
		}
		v /= float64(r)
		s.Scale[j] = math.Sqrt(v)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return nil
}

// TransformColumns は X の indices 列だけを標準化した新しい行列を返します。
// X 自体は変更しません。indices[k] 列には Mean[k], Scale[k] を使います。
func (s *StandardScaler) TransformColumns(X [][]float64, indices []int) ([][]float64, error) {
	if !s.Fitted() {
		return nil, fmt.Errorf("scaler: not fitted")
	}
	if len(indices) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: fitted on %d columns, got %d indices", len(s.Mean), len(indices))
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		cp := append([]float64(nil), row...)
		for k, j := range indices {
			if j < 0 || j >= len(cp) {
				return nil, fmt.Errorf("scaler: column index %d out of range", j)
			}
			cp[j] = (cp[j] - s.Mean[k]) / s.Scale[k]
		}
		out[i] = cp
	}
	return out, nil
}

// selectColumns は indices 列だけを取り出します。
func selectColumns(X [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		sub := make([]float64, len(indices))
		for k, j := range indices {
			sub[k] = row[j]
		}
		out[i] = sub
	}
	return out
}
