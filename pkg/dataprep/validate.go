package dataprep

import (
	"oil-sales-api/pkg/errx"
	"oil-sales-api/pkg/models"
)

// Validate は必須列の存在を検証し、テーブルとして返します。
// requireTarget=false の場合のみ目的変数（volume_sales）の欠落を許容します。
// 必須列の集合は models.RequiredColumns で閉じており、それ以外に任意列はありません。
func Validate(table models.Table, requireTarget bool) (models.Table, error) {
	missing := make([]string, 0)
	seen := make(map[string]bool)
	for _, col := range models.RequiredColumns {
		if col == models.TargetColumn && !requireTarget {
			continue
		}
		for _, rec := range table {
			if _, ok := rec[col]; !ok && !seen[col] {
				seen[col] = true
				missing = append(missing, col)
			}
		}
	}
	if len(missing) > 0 {
		return nil, &errx.SchemaError{Missing: missing}
	}
	return table, nil
}

// ValidateRecord は推論用の単一レコードを検証します。
func ValidateRecord(record models.Record) (models.Table, error) {
	return Validate(models.Table{record}, false)
}
