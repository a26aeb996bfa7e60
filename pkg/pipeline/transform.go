package pipeline

import (
	"fmt"

	"oil-sales-api/pkg/dataprep"
	"oil-sales-api/pkg/features"
	"oil-sales-api/pkg/models"
)

// prepared は transform の出力です。
type prepared struct {
	X       [][]float64
	y       []float64
	columns []string
	stats   *dataprep.ImputeStats
	state   *features.State
}

// transform は学習と推論で共通の前処理です。
// Validate → Clean → Parse → DeriveFeatures → Encode → 列順で行列化 の順に処理します。
// 推論時は stats・state・columns に学習時の値を渡し、それらは変更されません。
// 学習時は columns が nil なら features.FeatureColumns() を使います。
func transform(table models.Table, stats *dataprep.ImputeStats, state *features.State, columns []string, isTraining bool) (*prepared, error) {
	if !isTraining {
		table = withoutTarget(table)
	}
	validated, err := dataprep.Validate(table, isTraining)
	if err != nil {
		return nil, err
	}
	cleaned, stats, err := dataprep.Clean(validated, stats, isTraining)
	if err != nil {
		return nil, err
	}
	if isTraining && len(cleaned) == 0 {
		return nil, fmt.Errorf("no rows with a positive %s", models.TargetColumn)
	}
	records, err := dataprep.ParseRecords(cleaned, isTraining)
	if err != nil {
		return nil, err
	}
	derived, state, err := features.DeriveFeatures(records, state, isTraining)
	if err != nil {
		return nil, err
	}
	frame, state, err := features.Encode(derived, state, isTraining)
	if err != nil {
		return nil, err
	}

	if columns == nil {
		columns = features.FeatureColumns()
	}
	X, err := frame.Matrix(columns)
	if err != nil {
		return nil, err
	}

	out := &prepared{X: X, columns: columns, stats: stats, state: state}
	if isTraining {
		out.y = make([]float64, len(records))
		for i, r := range records {
			out.y[i] = *r.VolumeSales
		}
	}
	return out, nil
}

// withoutTarget は目的変数を除いたコピーを返します。推論時は目的変数を読みません。
func withoutTarget(table models.Table) models.Table {
	out := make(models.Table, len(table))
	for i, rec := range table {
		cp := rec.Clone()
		delete(cp, models.TargetColumn)
		out[i] = cp
	}
	return out
}
