package artifacts

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"oil-sales-api/pkg/dataprep"
	"oil-sales-api/pkg/errx"
	"oil-sales-api/pkg/features"
	"oil-sales-api/pkg/regressor"
)

type encodersBlob struct {
	Encoders     map[string]*features.Vocabulary `json:"encoders"`
	BrandFreqMap features.BrandFrequency         `json:"brand_freq_map"`
	Imputation   dataprep.ImputeStats            `json:"imputation"`
}

type scalerBlob struct {
	Scaler            *regressor.StandardScaler `json:"scaler"`
	FeatureNames      []string                  `json:"feature_names"`
	NumFeatureIndices []int                     `json:"num_feature_indices"`
}

type modelBlob struct {
	Model regressor.Regressor
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Encode はバンドルを成果物ごとのバイト列にします。
// b.Manifest.Blobs は書き出した内容のチェックサムで更新されます。
func Encode(b *Bundle) (map[string][]byte, error) {
	if b == nil || b.Features == nil || b.Model == nil {
		return nil, fmt.Errorf("encode bundle: incomplete bundle")
	}

	blobs := make(map[string][]byte, len(BlobNames)+1)

	enc, err := json.MarshalIndent(encodersBlob{
		Encoders:     b.Features.Vocabularies,
		BrandFreqMap: b.Features.BrandFrequency,
		Imputation:   b.Imputation,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", EncodersBlob, err)
	}
	blobs[EncodersBlob] = enc

	sc, err := json.MarshalIndent(scalerBlob{
		Scaler:            b.Model.Scaler,
		FeatureNames:      b.Model.FeatureNames,
		NumFeatureIndices: b.Model.NumFeatureIndices,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ScalerBlob, err)
	}
	blobs[ScalerBlob] = sc

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(modelBlob{Model: b.Model.Model}); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ModelBlob, err)
	}
	blobs[ModelBlob] = buf.Bytes()

	b.Manifest.Blobs = make(map[string]BlobInfo, len(BlobNames))
	for _, name := range BlobNames {
		b.Manifest.Blobs[name] = BlobInfo{SHA256: checksum(blobs[name]), Size: int64(len(blobs[name]))}
	}
	manifest, err := yaml.Marshal(&b.Manifest)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ManifestFile, err)
	}
	blobs[ManifestFile] = manifest
	return blobs, nil
}

// Decode は成果物を検証してバンドルへ復元します。
// 欠落・改ざん・相互の不整合はすべて *errx.ArtifactError になります。
func Decode(blobs map[string][]byte) (*Bundle, error) {
	raw, ok := blobs[ManifestFile]
	if !ok {
		return nil, errx.NewArtifactError(ManifestFile, "not found")
	}
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, &errx.ArtifactError{Artifact: ManifestFile, Err: err}
	}
	if manifest.Version != FormatVersion {
		return nil, errx.NewArtifactError(ManifestFile, "unsupported format version %d", manifest.Version)
	}

	for _, name := range BlobNames {
		data, ok := blobs[name]
		if !ok {
			return nil, errx.NewArtifactError(name, "not found")
		}
		info, ok := manifest.Blobs[name]
		if !ok {
			return nil, errx.NewArtifactError(name, "not listed in manifest")
		}
		if info.Size != int64(len(data)) || info.SHA256 != checksum(data) {
			return nil, errx.NewArtifactError(name, "checksum mismatch")
		}
	}

	var enc encodersBlob
	if err := json.Unmarshal(blobs[EncodersBlob], &enc); err != nil {
		return nil, &errx.ArtifactError{Artifact: EncodersBlob, Err: err}
	}
	state := &features.State{BrandFrequency: enc.BrandFreqMap, Vocabularies: enc.Encoders}
	if err := state.Validate(); err != nil {
		return nil, &errx.ArtifactError{Artifact: EncodersBlob, Err: err}
	}
	if err := validateImputation(enc.Imputation); err != nil {
		return nil, &errx.ArtifactError{Artifact: EncodersBlob, Err: err}
	}

	var sc scalerBlob
	if err := json.Unmarshal(blobs[ScalerBlob], &sc); err != nil {
		return nil, &errx.ArtifactError{Artifact: ScalerBlob, Err: err}
	}
	if err := validateColumns(sc); err != nil {
		return nil, &errx.ArtifactError{Artifact: ScalerBlob, Err: err}
	}

	var mb modelBlob
	if err := gob.NewDecoder(bytes.NewReader(blobs[ModelBlob])).Decode(&mb); err != nil {
		return nil, &errx.ArtifactError{Artifact: ModelBlob, Err: err}
	}

	modelState := &regressor.ModelState{
		Scaler:            sc.Scaler,
		FeatureNames:      sc.FeatureNames,
		NumFeatureIndices: sc.NumFeatureIndices,
		Model:             mb.Model,
	}
	if _, err := regressor.Restore(modelState); err != nil {
		return nil, &errx.ArtifactError{Artifact: ModelBlob, Err: err}
	}

	return &Bundle{
		Manifest:   manifest,
		Features:   state,
		Imputation: enc.Imputation,
		Model:      modelState,
	}, nil
}

// validateColumns は列順と数値列の位置が現在の特徴量定義と一致するか検査します。
func validateColumns(sc scalerBlob) error {
	want := features.FeatureColumns()
	if len(sc.FeatureNames) != len(want) {
		return fmt.Errorf("expected %d feature names, got %d", len(want), len(sc.FeatureNames))
	}
	var numIdx []int
	for i, name := range want {
		if sc.FeatureNames[i] != name {
			return fmt.Errorf("feature %d is %q, expected %q", i, sc.FeatureNames[i], name)
		}
		if features.IsNumericFeature(name) {
			numIdx = append(numIdx, i)
		}
	}
	if len(sc.NumFeatureIndices) != len(numIdx) {
		return fmt.Errorf("expected %d numeric indices, got %d", len(numIdx), len(sc.NumFeatureIndices))
	}
	for k, i := range numIdx {
		if sc.NumFeatureIndices[k] != i {
			return fmt.Errorf("numeric index %d is %d, expected %d", k, sc.NumFeatureIndices[k], i)
		}
	}
	if !sc.Scaler.Fitted() || len(sc.Scaler.Mean) != len(numIdx) {
		return fmt.Errorf("scaler does not cover the %d numeric features", len(numIdx))
	}
	return nil
}

func validateImputation(stats dataprep.ImputeStats) error {
	if stats.Medians == nil || stats.Modes == nil {
		return fmt.Errorf("imputation statistics are missing")
	}
	return nil
}
