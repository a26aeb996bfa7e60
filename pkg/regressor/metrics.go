package regressor

import (
	"math"

	"oil-sales-api/pkg/models"
)

func MSE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / n
}

func MAE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / n
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

// R2 は決定係数です。yTrue が定数の場合は予測が完全一致なら1、そうでなければ0です。
func R2(yTrue, yPred []float64) float64 {
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))
	ssTot := 0.0
	ssRes := 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Evaluate は R², RMSE, MAE をまとめて計算します。
func Evaluate(yTrue, yPred []float64) models.Metrics {
	return models.Metrics{
		R2:   R2(yTrue, yPred),
		RMSE: RMSE(yTrue, yPred),
		MAE:  MAE(yTrue, yPred),
	}
}
