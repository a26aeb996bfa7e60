package services

import (
	"math"
	"sort"
	"strconv"

	"oil-sales-api/pkg/features"
	"oil-sales-api/pkg/models"
)

// StatisticsService は学習データの記述統計を計算します。
type StatisticsService struct{}

// NewStatisticsService は新しいStatisticsServiceを生成します。
func NewStatisticsService() *StatisticsService {
	return &StatisticsService{}
}

// SummarizeTarget は正の volume_sales を持つ行について要約と季節別平均を返します。
// 該当行がなければ nil です。
func (s *StatisticsService) SummarizeTarget(table models.Table) *models.TargetStatistics {
	var values []float64
	bySeason := make(map[string][]float64)
	for _, rec := range table {
		v, err := strconv.ParseFloat(rec[models.TargetColumn], 64)
		if err != nil || math.IsNaN(v) || v <= 0 {
			continue
		}
		values = append(values, v)
		if month, err := strconv.ParseFloat(rec[models.ColMonth], 64); err == nil {
			season := features.Season(month)
			bySeason[season] = append(bySeason[season], v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	seasonAvg := make(map[string]float64, len(bySeason))
	for season, vs := range bySeason {
		seasonAvg[season] = calculateMean(vs)
	}

	return &models.TargetStatistics{
		Count:         len(values),
		Mean:          calculateMean(values),
		Median:        calculateMedian(sorted),
		StdDev:        calculateStandardDeviation(values),
		Min:           sorted[0],
		Max:           sorted[len(sorted)-1],
		SeasonAverage: seasonAvg,
	}
}

// calculateMean パッケージ内部用のヘルパー関数：平均値を計算
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateMedian はソート済みの値の中央値を返します。
func calculateMedian(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// calculateStandardDeviation パッケージ内部用のヘルパー関数：標準偏差（母集団）を計算
func calculateStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := calculateMean(values)
	sumSquaredDiff := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}
