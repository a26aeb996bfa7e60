package pipeline

import (
	"fmt"

	config "oil-sales-api/configs"
	"oil-sales-api/pkg/artifacts"
	logx "oil-sales-api/pkg/logger"
	"oil-sales-api/pkg/models"
	"oil-sales-api/pkg/regressor"
)

// Options は学習時の設定です。
type Options struct {
	TestSize    float64
	RandomState int64
	Factory     regressor.ModelFactory
}

// DefaultOptions はテスト比率0.2・seed 42・既定のランダムフォレストです。
func DefaultOptions() Options {
	return Options{TestSize: 0.2, RandomState: 42, Factory: regressor.ForestFactory()}
}

// OptionsFromConfig は設定値から学習オプションを作ります。
func OptionsFromConfig(t config.TrainingConfig) Options {
	return Options{
		TestSize:    t.TestSize,
		RandomState: t.RandomState,
		Factory: regressor.ForestFactory(
			regressor.WithNEstimators(t.NEstimators),
			regressor.WithMaxDepth(t.MaxDepth),
			regressor.WithMinSamplesSplit(t.MinSamplesSplit),
			regressor.WithMinSamplesLeaf(t.MinSamplesLeaf),
		),
	}
}

// Train はテーブル全体から補完統計量・特徴量の状態・モデルを学習し、
// 保存可能なバンドルとテストデータ上の評価指標を返します。
func Train(table models.Table, opts Options) (*artifacts.Bundle, models.Metrics, error) {
	if opts.Factory == nil {
		opts.Factory = regressor.ForestFactory()
	}

	prep, err := transform(table, nil, nil, nil, true)
	if err != nil {
		return nil, models.Metrics{}, fmt.Errorf("prepare training data: %w", err)
	}
	logx.Info().Int("input_rows", len(table)).Int("training_rows", len(prep.y)).
		Int("features", len(prep.columns)).Msg("training data prepared")

	model := regressor.NewSalesModel(opts.Factory)
	metrics, err := model.Fit(prep.X, prep.columns, prep.y, opts.TestSize, opts.RandomState)
	if err != nil {
		return nil, models.Metrics{}, fmt.Errorf("fit model: %w", err)
	}
	state, err := model.State()
	if err != nil {
		return nil, models.Metrics{}, err
	}

	logx.Info().Float64("r2", metrics.R2).Float64("rmse", metrics.RMSE).Float64("mae", metrics.MAE).
		Msg("model evaluated on test split")

	return artifacts.NewBundle(prep.state, *prep.stats, state, metrics, len(prep.y)), metrics, nil
}
