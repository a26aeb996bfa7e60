package dataprep

import (
	"oil-sales-api/pkg/errx"
	"oil-sales-api/pkg/models"
)

// ParseRecords はクリーニング済みテーブルを型付きレコードに変換します。
// 数値列が解釈できない場合は ParseError を返します（size は文字列のまま保持）。
func ParseRecords(table models.Table, requireTarget bool) ([]models.SalesRecord, error) {
	out := make([]models.SalesRecord, 0, len(table))
	for _, rec := range table {
		sr := models.SalesRecord{
			City:         rec[models.ColCity],
			StoreName:    rec[models.ColStoreName],
			Manufacturer: rec[models.ColManufacturer],
			Brand:        rec[models.ColBrand],
			Class:        rec[models.ColClass],
			Size:         rec[models.ColSize],
			PriceBracket: rec[models.ColPriceBracket],
		}

		fields := []struct {
			col string
			dst *float64
		}{
			{models.ColYear, &sr.Year},
			{models.ColMonth, &sr.Month},
			{models.ColValueSales, &sr.ValueSales},
			{models.ColAveragePrice, &sr.AveragePrice},
		}
		for _, f := range fields {
			v, ok := parseNumber(rec[f.col])
			if !ok {
				return nil, &errx.ParseError{Field: f.col, Value: rec[f.col]}
			}
			*f.dst = v
		}

		if raw, ok := rec[models.TargetColumn]; ok && !models.IsMissing(raw) {
			v, ok := parseNumber(raw)
			if !ok {
				return nil, &errx.ParseError{Field: models.TargetColumn, Value: raw}
			}
			sr.VolumeSales = &v
		} else if requireTarget {
			return nil, &errx.ParseError{Field: models.TargetColumn, Value: raw}
		}

		out = append(out, sr)
	}
	return out, nil
}
