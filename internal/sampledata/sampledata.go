// Package sampledata は学習・テスト用の模擬販売データを生成します。
package sampledata

import (
	"math"
	"math/rand"
	"strconv"

	"oil-sales-api/pkg/models"
)

type product struct {
	manufacturer string
	brand        string
	class        string
	basePrice    float64
}

var (
	cities = []string{"Cairo", "Giza", "Alexandria", "Mansoura"}
	stores = []string{"Store A", "Store B", "Store C", "Store D", "Store E"}
	sizes  = []string{"0.5L", "1L", "1.5 L", "2.25L", "5L"}

	products = []product{
		{"Arma", "Crystal", "Sunflower", 62},
		{"Arma", "Hala", "Blend", 48},
		{"Savola", "Afia", "Corn", 75},
		{"Savola", "Sunny", "Sunflower", 58},
		{"Wadi Food", "Wadi", "Olive", 140},
	}

	// 月ごとの需要係数（冬に多く、夏に少ない）
	monthFactor = [13]float64{0, 1.25, 1.2, 1.0, 0.95, 0.9, 0.8, 0.8, 0.85, 0.95, 1.0, 1.1, 1.3}
)

func priceBracket(price float64) string {
	switch {
	case price < 50:
		return "Low"
	case price < 100:
		return "Medium"
	default:
		return "High"
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Generate は seed で決まる n 件の販売レコードを返します。
// 量は容量・価格・月・都市から決まり、小さなノイズを含みます。
func Generate(n int, seed int64) models.Table {
	rnd := rand.New(rand.NewSource(seed))
	table := make(models.Table, 0, n)
	for i := 0; i < n; i++ {
		p := products[rnd.Intn(len(products))]
		city := rnd.Intn(len(cities))
		sizeIdx := rnd.Intn(len(sizes))
		size := []float64{0.5, 1, 1.5, 2.25, 5}[sizeIdx]
		month := rnd.Intn(12) + 1
		year := 2021 + rnd.Intn(3)

		price := math.Round((p.basePrice*size*(1+0.05*float64(year-2021))+rnd.NormFloat64()*2)*100) / 100
		volume := (400/size + 120*float64(city) + 30*float64(len(p.brand))) * monthFactor[month]
		volume = math.Max(1, math.Round(volume*(1+0.05*rnd.NormFloat64())))

		table = append(table, models.Record{
			models.ColCity:         cities[city],
			models.ColStoreName:    stores[rnd.Intn(len(stores))],
			models.ColManufacturer: p.manufacturer,
			models.ColBrand:        p.brand,
			models.ColClass:        p.class,
			models.ColSize:         sizes[sizeIdx],
			models.ColPriceBracket: priceBracket(price / size),
			models.ColYear:         strconv.Itoa(year),
			models.ColMonth:        strconv.Itoa(month),
			models.ColValueSales:   format(math.Round(volume*price*100) / 100),
			models.ColVolumeSales:  format(volume),
			models.ColAveragePrice: format(price),
		})
	}
	return table
}
