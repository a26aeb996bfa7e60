package services

import (
	"context"
	"fmt"
	"time"

	"oil-sales-api/pkg/artifacts"
	logx "oil-sales-api/pkg/logger"
	"oil-sales-api/pkg/models"
	"oil-sales-api/pkg/pipeline"
)

// TrainingService はデータ読み込みから学習・保存までを実行します。
type TrainingService struct {
	datasets   *DatasetService
	statistics *StatisticsService
	store      artifacts.Store
	opts       pipeline.Options
}

// NewTrainingService は新しいTrainingServiceを生成します。
func NewTrainingService(datasets *DatasetService, store artifacts.Store, opts pipeline.Options) *TrainingService {
	return &TrainingService{
		datasets:   datasets,
		statistics: NewStatisticsService(),
		store:      store,
		opts:       opts,
	}
}

// Run は path のデータで学習し、バンドルを保存して評価指標を返します。
func (s *TrainingService) Run(ctx context.Context, path string) (*artifacts.Bundle, models.Metrics, error) {
	table, err := s.datasets.Load(path)
	if err != nil {
		return nil, models.Metrics{}, err
	}
	return s.Train(ctx, table)
}

// Train は読み込み済みテーブルで学習し、バンドルを保存します。
func (s *TrainingService) Train(ctx context.Context, table models.Table) (*artifacts.Bundle, models.Metrics, error) {
	start := time.Now()
	bundle, metrics, err := pipeline.Train(table, s.opts)
	if err != nil {
		return nil, models.Metrics{}, err
	}
	logx.Info().Str("bundle_id", bundle.Manifest.BundleID).Dur("elapsed", time.Since(start)).Msg("training finished")

	bundle.Manifest.TargetSummary = s.statistics.SummarizeTarget(table)
	if summary := bundle.Manifest.TargetSummary; summary != nil {
		logx.Info().Int("rows", summary.Count).Float64("mean", summary.Mean).
			Float64("median", summary.Median).Msg("target summary")
	}

	if err := ctx.Err(); err != nil {
		return nil, models.Metrics{}, err
	}
	if err := s.store.Save(ctx, bundle); err != nil {
		return nil, models.Metrics{}, fmt.Errorf("save bundle: %w", err)
	}
	return bundle, metrics, nil
}
