package regressor

import (
	"encoding/gob"
	"fmt"

	"oil-sales-api/pkg/errx"
	"oil-sales-api/pkg/features"
	"oil-sales-api/pkg/models"
)

func init() {
	gob.Register(&RandomForestRegressor{})
}

// ModelFactory は seed から未学習のモデルを作ります。
type ModelFactory func(seed int64) Regressor

// ForestFactory は固定のハイパーパラメータでランダムフォレストを作るファクトリです。
func ForestFactory(opts ...RandomForestOption) ModelFactory {
	return func(seed int64) Regressor {
		all := append(append([]RandomForestOption(nil), opts...), WithRandomState(seed))
		return NewRandomForestRegressor(all...)
	}
}

// ModelState は永続化されるモデル側の状態（スケーラ・列順・モデル）です。
type ModelState struct {
	Scaler            *StandardScaler
	FeatureNames      []string
	NumFeatureIndices []int
	Model             Regressor
}

// SalesModel は数値列のみをスケーリングしてモデルへ渡すアダプタです。
// Fit/Restore 後は読み取り専用で、Predict は並行に呼び出せます。
type SalesModel struct {
	factory ModelFactory

	model             Regressor
	scaler            *StandardScaler
	featureNames      []string
	numFeatureIndices []int
}

// NewSalesModel は未学習のアダプタを返します。
func NewSalesModel(factory ModelFactory) *SalesModel {
	if factory == nil {
		factory = ForestFactory()
	}
	return &SalesModel{factory: factory}
}

// Fitted は Fit または Restore 済みかを返します。
func (m *SalesModel) Fitted() bool {
	return m != nil && m.model != nil && m.scaler.Fitted()
}

// FeatureNames は学習時の列順のコピーを返します。
func (m *SalesModel) FeatureNames() []string {
	return append([]string(nil), m.featureNames...)
}

// Fit は seed で学習・テストに分割し、学習側の数値列でスケーラを学習したうえで
// モデルを学習し、テスト側の評価指標を返します。
// 数値列は列名で判定し、その位置を保存します。
func (m *SalesModel) Fit(X [][]float64, columns []string, y []float64, testFraction float64, seed int64) (models.Metrics, error) {
	if len(X) != len(y) {
		return models.Metrics{}, fmt.Errorf("fit: X has %d rows, y has %d", len(X), len(y))
	}
	for i, row := range X {
		if len(row) != len(columns) {
			return models.Metrics{}, fmt.Errorf("fit: row %d has %d values, expected %d columns", i, len(row), len(columns))
		}
	}

	numIdx := make([]int, 0, len(features.NumericFeatures))
	for i, col := range columns {
		if features.IsNumericFeature(col) {
			numIdx = append(numIdx, i)
		}
	}
	if len(numIdx) == 0 {
		return models.Metrics{}, fmt.Errorf("fit: no numeric feature columns in %v", columns)
	}

	trainIdx, testIdx, err := TrainTestSplit(len(X), testFraction, seed)
	if err != nil {
		return models.Metrics{}, fmt.Errorf("fit: %w", err)
	}
	XTrain, XTest := takeRows(X, trainIdx), takeRows(X, testIdx)
	yTrain, yTest := takeValues(y, trainIdx), takeValues(y, testIdx)

	scaler := NewStandardScaler()
	if err := scaler.Fit(selectColumns(XTrain, numIdx)); err != nil {
		return models.Metrics{}, fmt.Errorf("fit: %w", err)
	}
	XTrainScaled, err := scaler.TransformColumns(XTrain, numIdx)
	if err != nil {
		return models.Metrics{}, fmt.Errorf("fit: %w", err)
	}
	XTestScaled, err := scaler.TransformColumns(XTest, numIdx)
	if err != nil {
		return models.Metrics{}, fmt.Errorf("fit: %w", err)
	}

	model := m.factory(seed)
	if err := model.Fit(XTrainScaled, yTrain); err != nil {
		return models.Metrics{}, fmt.Errorf("fit: %w", err)
	}
	metrics := Evaluate(yTest, model.Predict(XTestScaled))

	m.model = model
	m.scaler = scaler
	m.featureNames = append([]string(nil), columns...)
	m.numFeatureIndices = numIdx
	return metrics, nil
}

// Predict は学習済みスケーラを数値列に適用して予測します（再学習はしません）。
// columns が学習時と異なる順序でも、列名で学習時の順序に並べ替えてから処理します。
// columns が nil の場合は学習時の順序とみなします。
func (m *SalesModel) Predict(X [][]float64, columns []string) ([]float64, error) {
	if !m.Fitted() {
		return nil, errx.ErrNotFitted
	}
	ordered, err := m.reorder(X, columns)
	if err != nil {
		return nil, err
	}
	scaled, err := m.scaler.TransformColumns(ordered, m.numFeatureIndices)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return m.model.Predict(scaled), nil
}

func (m *SalesModel) reorder(X [][]float64, columns []string) ([][]float64, error) {
	width := len(m.featureNames)
	if columns == nil {
		for i, row := range X {
			if len(row) != width {
				return nil, fmt.Errorf("predict: row %d has %d values, expected %d", i, len(row), width)
			}
		}
		return X, nil
	}
	if len(columns) != width {
		return nil, fmt.Errorf("predict: got %d columns, model was fitted on %d", len(columns), width)
	}
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c] = i
	}
	perm := make([]int, width)
	for j, name := range m.featureNames {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("predict: feature column %q not supplied", name)
		}
		perm[j] = i
	}
	out := make([][]float64, len(X))
	for r, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("predict: row %d has %d values, expected %d", r, len(row), width)
		}
		cp := make([]float64, width)
		for j, i := range perm {
			cp[j] = row[i]
		}
		out[r] = cp
	}
	return out, nil
}

// State は永続化用の状態を返します。
func (m *SalesModel) State() (*ModelState, error) {
	if !m.Fitted() {
		return nil, errx.ErrNotFitted
	}
	return &ModelState{
		Scaler:            m.scaler,
		FeatureNames:      m.FeatureNames(),
		NumFeatureIndices: append([]int(nil), m.numFeatureIndices...),
		Model:             m.model,
	}, nil
}

// Restore は永続化された状態からアダプタを復元します。
func Restore(state *ModelState) (*SalesModel, error) {
	if state == nil || state.Model == nil {
		return nil, fmt.Errorf("restore: model is missing")
	}
	if !state.Scaler.Fitted() {
		return nil, fmt.Errorf("restore: scaler is not fitted")
	}
	if len(state.NumFeatureIndices) != len(state.Scaler.Mean) {
		return nil, fmt.Errorf("restore: %d numeric indices but scaler has %d columns",
			len(state.NumFeatureIndices), len(state.Scaler.Mean))
	}
	for _, i := range state.NumFeatureIndices {
		if i < 0 || i >= len(state.FeatureNames) {
			return nil, fmt.Errorf("restore: numeric index %d out of range", i)
		}
	}
	if n := state.Model.NumFeatures(); n != len(state.FeatureNames) {
		return nil, fmt.Errorf("restore: model expects %d features, feature order has %d", n, len(state.FeatureNames))
	}
	return &SalesModel{
		factory:           ForestFactory(),
		model:             state.Model,
		scaler:            state.Scaler,
		featureNames:      append([]string(nil), state.FeatureNames...),
		numFeatureIndices: append([]int(nil), state.NumFeatureIndices...),
	}, nil
}
