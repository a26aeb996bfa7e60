package dataprep

import (
	"oil-sales-api/pkg/errx"
	"oil-sales-api/pkg/models"
)

// Clean は欠損補完と不正行の除去を行います。
//
// 学習時（isTraining=true）は目的変数が欠損・非数値・0以下の行を除外し、
// 残った行から補完統計量を新たに計算して返します。引数の stats は無視されます。
// 推論時は行を除外せず、学習時の stats で補完します。stats が nil なら ErrNotFitted です。
// 入力テーブルは変更しません。
func Clean(table models.Table, stats *ImputeStats, isTraining bool) (models.Table, *ImputeStats, error) {
	rows := table
	if isTraining {
		rows = make(models.Table, 0, len(table))
		for _, rec := range table {
			target, ok := parseNumber(rec[models.TargetColumn])
			if !ok || target <= 0 {
				continue
			}
			rows = append(rows, rec)
		}
		fitted := FitImputation(rows)
		stats = &fitted
	} else if stats == nil {
		return nil, nil, errx.ErrNotFitted
	}

	out := make(models.Table, len(rows))
	for i, rec := range rows {
		out[i] = stats.Apply(rec)
	}
	return out, stats, nil
}
