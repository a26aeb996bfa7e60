package features

import (
	"math"
	"regexp"
	"strconv"

	"oil-sales-api/pkg/models"
)

// DefaultSize は size 文字列から数値が取れない場合の値です。
const DefaultSize = 1.0

// ZeroSizePricePerLiter は size_numeric が0のときの price_per_liter です。
// 0除算の NaN/Inf を下流に流さないための固定値です。
const ZeroSizePricePerLiter = 0.0

// UnseenBrandFrequency は学習時に出現しなかったブランドの頻度です。
const UnseenBrandFrequency = 1

// 季節ラベル
const (
	SeasonWinter  = "Winter"
	SeasonSpring  = "Spring"
	SeasonSummer  = "Summer"
	SeasonFall    = "Fall"
	SeasonUnknown = "Unknown"
)

var sizePattern = regexp.MustCompile(`(\d+\.?\d*)`)

var seasonByMonth = map[int]string{
	12: SeasonWinter, 1: SeasonWinter, 2: SeasonWinter,
	3: SeasonSpring, 4: SeasonSpring, 5: SeasonSpring,
	6: SeasonSummer, 7: SeasonSummer, 8: SeasonSummer,
	9: SeasonFall, 10: SeasonFall, 11: SeasonFall,
}

// DerivedRow は派生特徴量を付与したレコードです。
type DerivedRow struct {
	models.SalesRecord
	SizeNumeric    float64
	PricePerLiter  float64
	BrandFrequency float64
	Season         string
}

// ExtractSize は size 文字列中の最初の数値トークンを返します。
// 見つからない・解釈できない場合は DefaultSize です。
func ExtractSize(size string) float64 {
	match := sizePattern.FindString(size)
	if match == "" {
		return DefaultSize
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(v, 0) {
		return DefaultSize
	}
	return v
}

// PricePerLiter は average_price / size_numeric を返します。size が0なら ZeroSizePricePerLiter です。
func PricePerLiter(averagePrice, size float64) float64 {
	if size == 0 {
		return ZeroSizePricePerLiter
	}
	return averagePrice / size
}

// Season は月から季節ラベルを返します。1〜12の整数以外は Unknown です。
func Season(month float64) string {
	if month != math.Trunc(month) {
		return SeasonUnknown
	}
	if s, ok := seasonByMonth[int(month)]; ok {
		return s
	}
	return SeasonUnknown
}

// BrandFrequency はブランド名→出現回数です。
type BrandFrequency map[string]int

// CountBrands はレコード群からブランド頻度表を作ります。
func CountBrands(rows []models.SalesRecord) BrandFrequency {
	freq := make(BrandFrequency)
	for _, r := range rows {
		freq[r.Brand]++
	}
	return freq
}

// Lookup はブランドの頻度を返します。未知のブランドは UnseenBrandFrequency です。
func (f BrandFrequency) Lookup(brand string) float64 {
	if c, ok := f[brand]; ok {
		return float64(c)
	}
	return UnseenBrandFrequency
}

// DeriveFeatures は size_numeric・price_per_liter・brand_frequency・season を付与します。
//
// isTraining=true の場合は rows からブランド頻度表を作り直し、prior を複製した
// 新しい State に格納して返します（prior は変更しません）。
// isTraining=false の場合は prior の頻度表を使い、prior をそのまま返します。
func DeriveFeatures(rows []models.SalesRecord, prior *State, isTraining bool) ([]DerivedRow, *State, error) {
	state := prior
	if isTraining {
		state = prior.clone()
		state.BrandFrequency = CountBrands(rows)
	} else if prior == nil || prior.BrandFrequency == nil {
		return nil, nil, errNotFitted("brand frequency")
	}

	out := make([]DerivedRow, len(rows))
	for i, r := range rows {
		size := ExtractSize(r.Size)
		out[i] = DerivedRow{
			SalesRecord:    r,
			SizeNumeric:    size,
			PricePerLiter:  PricePerLiter(r.AveragePrice, size),
			BrandFrequency: state.BrandFrequency.Lookup(r.Brand),
			Season:         Season(r.Month),
		}
	}
	return out, state, nil
}
