package features

import (
	"fmt"

	"oil-sales-api/pkg/models"
)

// 数値特徴量（スケーリング対象）。順序は固定です。
var NumericFeatures = []string{
	models.ColYear, models.ColMonth, models.ColValueSales, models.ColAveragePrice,
	"size_numeric", "price_per_liter", "brand_frequency",
}

// カテゴリ特徴量。この宣言順でエンコード列が並びます。
var CategoricalFeatures = []string{
	models.ColCity, models.ColManufacturer, models.ColBrand, models.ColClass, "season",
}

// EncodedName はカテゴリ列のエンコード後の列名です。
func EncodedName(col string) string {
	return col + "_enc"
}

// FeatureColumns はモデル入力の列順（数値7列＋エンコード5列）を返します。
// 毎回新しいスライスを返すため、呼び出し側が変更しても影響しません。
func FeatureColumns() []string {
	cols := make([]string, 0, len(NumericFeatures)+len(CategoricalFeatures))
	cols = append(cols, NumericFeatures...)
	for _, c := range CategoricalFeatures {
		cols = append(cols, EncodedName(c))
	}
	return cols
}

// IsNumericFeature は列名が数値特徴量かどうかを返します。
func IsNumericFeature(name string) bool {
	for _, c := range NumericFeatures {
		if c == name {
			return true
		}
	}
	return false
}

// categoricalValue は派生行からカテゴリ列の文字列値を取り出します。
func categoricalValue(r DerivedRow, col string) string {
	switch col {
	case models.ColCity:
		return r.City
	case models.ColManufacturer:
		return r.Manufacturer
	case models.ColBrand:
		return r.Brand
	case models.ColClass:
		return r.Class
	case "season":
		return r.Season
	}
	panic(fmt.Sprintf("features: unknown categorical column %q", col))
}

// Encode はカテゴリ列を整数コードに変換し、列名付きの Frame を返します。
//
// isTraining=true の場合は各カテゴリ列の語彙を rows から新たに作り、
// prior を複製した新しい State に格納して返します。
// isTraining=false の場合は prior の語彙で変換し、未知の値は語彙のフォールバックコードになります。
func Encode(rows []DerivedRow, prior *State, isTraining bool) (*Frame, *State, error) {
	state := prior
	if isTraining {
		state = prior.clone()
		vocabs := make(map[string]*Vocabulary, len(CategoricalFeatures))
		for _, col := range CategoricalFeatures {
			values := make([]string, len(rows))
			for i, r := range rows {
				values[i] = categoricalValue(r, col)
			}
			vocabs[col] = FitVocabulary(values)
		}
		state.Vocabularies = vocabs
	} else if !prior.Fitted() {
		return nil, nil, errNotFitted("encoders")
	}

	frame := NewFrame(len(rows))
	numeric := map[string]func(DerivedRow) float64{
		models.ColYear:         func(r DerivedRow) float64 { return r.Year },
		models.ColMonth:        func(r DerivedRow) float64 { return r.Month },
		models.ColValueSales:   func(r DerivedRow) float64 { return r.ValueSales },
		models.ColAveragePrice: func(r DerivedRow) float64 { return r.AveragePrice },
		"size_numeric":         func(r DerivedRow) float64 { return r.SizeNumeric },
		"price_per_liter":      func(r DerivedRow) float64 { return r.PricePerLiter },
		"brand_frequency":      func(r DerivedRow) float64 { return r.BrandFrequency },
	}
	for _, col := range NumericFeatures {
		get := numeric[col]
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = get(r)
		}
		frame.Set(col, values)
	}
	for _, col := range CategoricalFeatures {
		vocab := state.Vocabularies[col]
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = float64(vocab.Transform(categoricalValue(r, col)))
		}
		frame.Set(EncodedName(col), values)
	}
	return frame, state, nil
}
