package models

import (
	"fmt"
	"strconv"
	"strings"
)

// 入力レコードの列名
const (
	ColCity         = "city"
	ColStoreName    = "store_name"
	ColManufacturer = "manufacturer"
	ColBrand        = "brand"
	ColClass        = "class"
	ColSize         = "size"
	ColPriceBracket = "price_bracket"
	ColYear         = "year"
	ColMonth        = "month"
	ColValueSales   = "value_sales"
	ColVolumeSales  = "volume_sales"
	ColAveragePrice = "average_price"
)

// TargetColumn は学習時のみ必須となる目的変数の列名です。
const TargetColumn = ColVolumeSales

// RequiredColumns は学習データに必須の列（目的変数を含む）です。順序は固定です。
var RequiredColumns = []string{
	ColCity, ColStoreName, ColManufacturer, ColBrand, ColClass,
	ColSize, ColPriceBracket, ColYear, ColMonth, ColValueSales,
	ColVolumeSales, ColAveragePrice,
}

// NumericColumns は数値として扱う入力列です。
var NumericColumns = []string{ColYear, ColMonth, ColValueSales, ColVolumeSales, ColAveragePrice}

// CategoricalColumns は文字列として扱う入力列です。
var CategoricalColumns = []string{
	ColCity, ColStoreName, ColManufacturer, ColBrand, ColClass, ColSize, ColPriceBracket,
}

// Record は1件の販売観測（列名→値）です。
type Record map[string]string

// Table は同一スキーマのRecordの並びです（学習時のみ使用）。
type Table []Record

// Clone はレコードのコピーを返します。
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsMissing は値が欠損を表すかどうかを返します。
func IsMissing(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "na", "nan", "null", "none":
		return true
	}
	return false
}

// RecordFromJSON はJSONボディ（デコード済み）をRecordへ変換します。
// 数値は最短表現の文字列へ、nullは欠損（空文字）へ変換します。
func RecordFromJSON(body map[string]interface{}) (Record, error) {
	rec := make(Record, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case nil:
			rec[k] = ""
		case string:
			rec[k] = val
		case float64:
			rec[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			rec[k] = strconv.Itoa(val)
		case int64:
			rec[k] = strconv.FormatInt(val, 10)
		case bool:
			return nil, fmt.Errorf("field %q: boolean is not a valid value", k)
		default:
			return nil, fmt.Errorf("field %q: unsupported value type %T", k, v)
		}
	}
	return rec, nil
}

// SalesRecord はクリーニング後に型付けされた販売レコードです。
type SalesRecord struct {
	City         string
	StoreName    string
	Manufacturer string
	Brand        string
	Class        string
	Size         string
	PriceBracket string
	Year         float64
	Month        float64
	ValueSales   float64
	AveragePrice float64
	VolumeSales  *float64 // 推論時はnil
}

// Metrics はテストデータ上の評価指標です。
type Metrics struct {
	R2   float64 `json:"r2" yaml:"r2"`
	RMSE float64 `json:"rmse" yaml:"rmse"`
	MAE  float64 `json:"mae" yaml:"mae"`
}

// PredictionResult は単一レコードの予測結果です。
type PredictionResult struct {
	PredictedVolumeSales float64                `json:"predicted_volume_sales"`
	InputData            map[string]interface{} `json:"input_data"`
	BundleID             string                 `json:"bundle_id,omitempty"`
}

// TargetStatistics は学習データの volume_sales の要約です。
type TargetStatistics struct {
	Count         int                `json:"count" yaml:"count"`
	Mean          float64            `json:"mean" yaml:"mean"`
	Median        float64            `json:"median" yaml:"median"`
	StdDev        float64            `json:"std_dev" yaml:"std_dev"`
	Min           float64            `json:"min" yaml:"min"`
	Max           float64            `json:"max" yaml:"max"`
	SeasonAverage map[string]float64 `json:"season_average" yaml:"season_average"`
}
