package features

import "fmt"

// Frame は列名付きの数値テーブルです。
type Frame struct {
	rows    int
	columns map[string][]float64
}

// NewFrame は行数 rows の空の Frame を作ります。
func NewFrame(rows int) *Frame {
	return &Frame{rows: rows, columns: make(map[string][]float64)}
}

// Len は行数を返します。
func (f *Frame) Len() int {
	return f.rows
}

// Set は列を設定します。
func (f *Frame) Set(name string, values []float64) {
	if len(values) != f.rows {
		panic(fmt.Sprintf("features: column %s has %d values, frame has %d rows", name, len(values), f.rows))
	}
	f.columns[name] = values
}

// Column は列の値を返します。
func (f *Frame) Column(name string) ([]float64, bool) {
	v, ok := f.columns[name]
	return v, ok
}

// Matrix は指定された列順で行列を組み立てます。
// 列順は学習時に保存したものを渡すこと。存在しない列名はエラーです。
func (f *Frame) Matrix(columns []string) ([][]float64, error) {
	cols := make([][]float64, len(columns))
	for j, name := range columns {
		v, ok := f.columns[name]
		if !ok {
			return nil, fmt.Errorf("feature column %q not found", name)
		}
		cols[j] = v
	}
	X := make([][]float64, f.rows)
	for i := range X {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = cols[j][i]
		}
		X[i] = row
	}
	return X, nil
}
