package dataprep

import (
	"sort"
	"strconv"
	"strings"

	"oil-sales-api/pkg/models"
)

// ImputeStats は学習時に確定する欠損補完の統計量です。
// 推論時はこの値をそのまま使い、単一行から再計算しません。
type ImputeStats struct {
	Medians map[string]float64 `json:"medians"`
	Modes   map[string]string  `json:"modes"`
}

// FitImputation はテーブルから列ごとの補完値を計算します。
// 数値列は中央値、カテゴリ列は最頻値（同数の場合は辞書順で最小）です。
// 観測値が1つもない列は統計量を持ちません。
func FitImputation(table models.Table) ImputeStats {
	stats := ImputeStats{
		Medians: make(map[string]float64),
		Modes:   make(map[string]string),
	}

	for _, col := range models.NumericColumns {
		var nums []float64
		for _, rec := range table {
			if v, ok := parseNumber(rec[col]); ok {
				nums = append(nums, v)
			}
		}
		if len(nums) > 0 {
			stats.Medians[col] = median(nums)
		}
	}

	for _, col := range models.CategoricalColumns {
		counts := make(map[string]int)
		for _, rec := range table {
			v, ok := rec[col]
			if !ok || models.IsMissing(v) {
				continue
			}
			counts[v]++
		}
		if mode, ok := mostFrequent(counts); ok {
			stats.Modes[col] = mode
		}
	}
	return stats
}

// Apply は欠損値を補完した新しいレコードを返します。存在しない列は追加しません。
func (s ImputeStats) Apply(rec models.Record) models.Record {
	out := rec.Clone()
	for _, col := range models.NumericColumns {
		v, ok := out[col]
		if !ok || !models.IsMissing(v) {
			continue
		}
		if m, ok := s.Medians[col]; ok {
			out[col] = strconv.FormatFloat(m, 'f', -1, 64)
		}
	}
	for _, col := range models.CategoricalColumns {
		v, ok := out[col]
		if !ok || !models.IsMissing(v) {
			continue
		}
		if m, ok := s.Modes[col]; ok {
			out[col] = m
		}
	}
	return out
}

func parseNumber(v string) (float64, bool) {
	if models.IsMissing(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func median(nums []float64) float64 {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mostFrequent(counts map[string]int) (string, bool) {
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best, bestCount > 0
}
