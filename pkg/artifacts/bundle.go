package artifacts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"oil-sales-api/pkg/dataprep"
	"oil-sales-api/pkg/features"
	"oil-sales-api/pkg/models"
	"oil-sales-api/pkg/regressor"
)

// 成果物のファイル名
const (
	EncodersBlob = "encoders.json"
	ScalerBlob   = "scaler.json"
	ModelBlob    = "random_forest_model.gob"
	ManifestFile = "manifest.yaml"
)

// FormatVersion はバンドル形式のバージョンです。
const FormatVersion = 1

// BlobNames は manifest 以外の成果物名です。
var BlobNames = []string{EncodersBlob, ScalerBlob, ModelBlob}

// Store は学習済みバンドルの保存先です。
// Save は全成果物をまとめて公開し、Load は常に一貫した組を返します。
type Store interface {
	Save(ctx context.Context, b *Bundle) error
	Load(ctx context.Context) (*Bundle, error)
}

// BlobInfo は成果物1つ分のチェックサムとサイズです。
type BlobInfo struct {
	SHA256 string `yaml:"sha256" json:"sha256"`
	Size   int64  `yaml:"size" json:"size"`
}

// Manifest はバンドルのメタデータです。
type Manifest struct {
	Version        int                      `yaml:"version" json:"version"`
	BundleID       string                   `yaml:"bundle_id" json:"bundle_id"`
	CreatedAt      time.Time                `yaml:"created_at" json:"created_at"`
	TrainingRows   int                      `yaml:"training_rows" json:"training_rows"`
	FeatureColumns []string                 `yaml:"feature_columns" json:"feature_columns"`
	Metrics        models.Metrics           `yaml:"metrics" json:"metrics"`
	TargetSummary  *models.TargetStatistics `yaml:"target_summary,omitempty" json:"target_summary,omitempty"`
	Blobs          map[string]BlobInfo      `yaml:"blobs" json:"blobs"`
}

// Bundle は推論に必要な学習済み状態一式です。
type Bundle struct {
	Manifest   Manifest
	Features   *features.State
	Imputation dataprep.ImputeStats
	Model      *regressor.ModelState
}

// NewBundle は新しいIDで学習結果をまとめます。
func NewBundle(state *features.State, stats dataprep.ImputeStats, model *regressor.ModelState, metrics models.Metrics, rows int) *Bundle {
	return &Bundle{
		Manifest: Manifest{
			Version:        FormatVersion,
			BundleID:       uuid.NewString(),
			CreatedAt:      time.Now().UTC().Truncate(time.Second),
			TrainingRows:   rows,
			FeatureColumns: append([]string(nil), model.FeatureNames...),
			Metrics:        metrics,
		},
		Features:   state,
		Imputation: stats,
		Model:      model,
	}
}
