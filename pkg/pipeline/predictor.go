package pipeline

import (
	"fmt"

	"oil-sales-api/pkg/artifacts"
	"oil-sales-api/pkg/dataprep"
	"oil-sales-api/pkg/errx"
	"oil-sales-api/pkg/features"
	"oil-sales-api/pkg/models"
	"oil-sales-api/pkg/regressor"
)

// Predictor はロード済みバンドルから作る推論器です。
// 作成後は読み取り専用で、複数のゴルーチンから同時に使えます。
type Predictor struct {
	manifest artifacts.Manifest
	stats    dataprep.ImputeStats
	state    *features.State
	model    *regressor.SalesModel
}

// NewPredictor はバンドルを検証して推論器を作ります。
func NewPredictor(b *artifacts.Bundle) (*Predictor, error) {
	if b == nil || b.Features == nil || b.Model == nil {
		return nil, errx.ErrNotFitted
	}
	if !b.Features.Fitted() {
		return nil, fmt.Errorf("feature state: %w", errx.ErrNotFitted)
	}
	model, err := regressor.Restore(b.Model)
	if err != nil {
		return nil, &errx.ArtifactError{Artifact: artifacts.ModelBlob, Err: err}
	}
	return &Predictor{
		manifest: b.Manifest,
		stats:    b.Imputation,
		state:    b.Features,
		model:    model,
	}, nil
}

// Ready はモデルがロード済みかどうかを返します。
func (p *Predictor) Ready() bool {
	return p != nil && p.model.Fitted()
}

// Manifest はロード元バンドルのメタデータを返します。
func (p *Predictor) Manifest() artifacts.Manifest {
	if p == nil {
		return artifacts.Manifest{}
	}
	return p.manifest
}

// Predict は複数レコードをまとめて推論します。行の除外は行いません。
func (p *Predictor) Predict(table models.Table) ([]float64, error) {
	if !p.Ready() {
		return nil, errx.ErrNotFitted
	}
	stats := p.stats
	prep, err := transform(table, &stats, p.state, p.model.FeatureNames(), false)
	if err != nil {
		return nil, err
	}
	return p.model.Predict(prep.X, prep.columns)
}

// PredictSingle は1件のレコードから volume_sales を推論します。
// volume_sales は不要で、含まれていても使いません。
func (p *Predictor) PredictSingle(record models.Record) (*models.PredictionResult, error) {
	if !p.Ready() {
		return nil, errx.ErrNotFitted
	}
	table, err := dataprep.ValidateRecord(record)
	if err != nil {
		return nil, err
	}
	preds, err := p.Predict(table)
	if err != nil {
		return nil, err
	}

	input := make(map[string]interface{}, len(record))
	for k, v := range record {
		input[k] = v
	}
	return &models.PredictionResult{
		PredictedVolumeSales: preds[0],
		InputData:            input,
		BundleID:             p.manifest.BundleID,
	}, nil
}
