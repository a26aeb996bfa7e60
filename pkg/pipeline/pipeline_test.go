package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oil-sales-api/internal/sampledata"
	"oil-sales-api/pkg/artifacts"
	"oil-sales-api/pkg/errx"
	"oil-sales-api/pkg/features"
	"oil-sales-api/pkg/models"
	"oil-sales-api/pkg/regressor"
)

func testOptions() Options {
	return Options{
		TestSize:    0.2,
		RandomState: 42,
		Factory: regressor.ForestFactory(
			regressor.WithNEstimators(15),
			regressor.WithMaxDepth(8),
			regressor.WithMinSamplesSplit(4),
			regressor.WithMinSamplesLeaf(2),
		),
	}
}

func sampleRecord() models.Record {
	return models.Record{
		"city":          "Cairo",
		"store_name":    "Store A",
		"manufacturer":  "Arma",
		"brand":         "Crystal",
		"class":         "Sunflower",
		"size":          "1.5L",
		"price_bracket": "Medium",
		"year":          "2023",
		"month":         "7",
		"value_sales":   "100",
		"average_price": "3",
	}
}

func trainSample(t *testing.T) *artifacts.Bundle {
	t.Helper()
	bundle, _, err := Train(sampledata.Generate(300, 1), testOptions())
	require.NoError(t, err)
	return bundle
}

func TestTrainProducesConsistentBundle(t *testing.T) {
	bundle, metrics, err := Train(sampledata.Generate(300, 1), testOptions())
	require.NoError(t, err)

	assert.Greater(t, metrics.R2, 0.5)
	assert.Greater(t, metrics.RMSE, 0.0)
	assert.Equal(t, metrics, bundle.Manifest.Metrics)
	assert.Equal(t, 300, bundle.Manifest.TrainingRows)
	assert.NotEmpty(t, bundle.Manifest.BundleID)

	// 永続化される列順は featureColumns() と一致する
	assert.Equal(t, features.FeatureColumns(), bundle.Manifest.FeatureColumns)
	assert.Equal(t, features.FeatureColumns(), bundle.Model.FeatureNames)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, bundle.Model.NumFeatureIndices)
	assert.True(t, bundle.Features.Fitted())
}

func TestTrainDropsNonPositiveTargets(t *testing.T) {
	table := sampledata.Generate(60, 2)
	bad := sampleRecord()
	bad["city"] = "Nowhere"
	bad["brand"] = "Ghost"
	bad["manufacturer"] = "Phantom"
	bad["volume_sales"] = "-5"
	table = append(table, bad)

	bundle, _, err := Train(table, testOptions())
	require.NoError(t, err)

	assert.Equal(t, 60, bundle.Manifest.TrainingRows)
	_, seen := bundle.Features.BrandFrequency["Ghost"]
	assert.False(t, seen, "dropped row must not reach brand frequency")
	_, ok := bundle.Features.Vocabularies["city"].Code("Nowhere")
	assert.False(t, ok, "dropped row must not reach the city vocabulary")
	_, ok = bundle.Features.Vocabularies["manufacturer"].Code("Phantom")
	assert.False(t, ok)
}

func TestTrainFailsWithoutUsableRows(t *testing.T) {
	rec := sampleRecord()
	rec["volume_sales"] = "0"
	_, _, err := Train(models.Table{rec, rec.Clone()}, testOptions())
	assert.Error(t, err)

	_, _, err = Train(models.Table{sampleRecord()}, testOptions())
	var schemaErr *errx.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"volume_sales"}, schemaErr.Missing)
}

func TestPredictBeforeLoad(t *testing.T) {
	var p *Predictor
	_, err := p.PredictSingle(sampleRecord())
	assert.ErrorIs(t, err, errx.ErrNotFitted)
	assert.False(t, p.Ready())

	_, err = NewPredictor(nil)
	assert.ErrorIs(t, err, errx.ErrNotFitted)

	_, err = NewPredictor(&artifacts.Bundle{Features: &features.State{}, Model: &regressor.ModelState{}})
	assert.ErrorIs(t, err, errx.ErrNotFitted)
}

func TestPredictSingle(t *testing.T) {
	p, err := NewPredictor(trainSample(t))
	require.NoError(t, err)

	res, err := p.PredictSingle(sampleRecord())
	require.NoError(t, err)
	assert.Greater(t, res.PredictedVolumeSales, 0.0)
	assert.Equal(t, "Cairo", res.InputData["city"])
	assert.Equal(t, p.Manifest().BundleID, res.BundleID)

	t.Run("target is ignored", func(t *testing.T) {
		rec := sampleRecord()
		rec["volume_sales"] = "not a number"
		withTarget, err := p.PredictSingle(rec)
		require.NoError(t, err)
		assert.Equal(t, res.PredictedVolumeSales, withTarget.PredictedVolumeSales)
	})

	t.Run("unseen categories fall back", func(t *testing.T) {
		rec := sampleRecord()
		rec["brand"] = "NeverSeen"
		rec["city"] = "Atlantis"
		rec["size"] = "family pack"
		_, err := p.PredictSingle(rec)
		assert.NoError(t, err)
	})

	t.Run("missing values use training statistics", func(t *testing.T) {
		rec := sampleRecord()
		rec["average_price"] = ""
		rec["brand"] = "NaN"
		_, err := p.PredictSingle(rec)
		assert.NoError(t, err)
	})

	t.Run("missing field", func(t *testing.T) {
		rec := sampleRecord()
		delete(rec, "store_name")
		_, err := p.PredictSingle(rec)
		var schemaErr *errx.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"store_name"}, schemaErr.Missing)
	})

	t.Run("unparseable number", func(t *testing.T) {
		rec := sampleRecord()
		rec["year"] = "twenty"
		_, err := p.PredictSingle(rec)
		var parseErr *errx.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "year", parseErr.Field)
	})
}

func TestTrainServeParity(t *testing.T) {
	table := sampledata.Generate(50, 3)
	train, err := transform(table, nil, nil, nil, true)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		serve, err := transform(models.Table{table[i]}, train.stats, train.state, train.columns, false)
		require.NoError(t, err)
		assert.Equal(t, train.X[i], serve.X[0], "row %d", i)
	}
}

func TestIndependentlyLoadedBundlesAgree(t *testing.T) {
	bundle := trainSample(t)
	store := artifacts.NewFileStore(t.TempDir() + "/models")
	require.NoError(t, store.Save(context.Background(), bundle))

	inMemory, err := NewPredictor(bundle)
	require.NoError(t, err)
	want, err := inMemory.PredictSingle(sampleRecord())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		loaded, err := store.Load(context.Background())
		require.NoError(t, err)
		p, err := NewPredictor(loaded)
		require.NoError(t, err)
		got, err := p.PredictSingle(sampleRecord())
		require.NoError(t, err)
		assert.Equal(t, want.PredictedVolumeSales, got.PredictedVolumeSales)
		assert.Equal(t, bundle.Manifest.BundleID, got.BundleID)
	}
}

func TestPredictorConcurrentUse(t *testing.T) {
	p, err := NewPredictor(trainSample(t))
	require.NoError(t, err)
	want, err := p.PredictSingle(sampleRecord())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := p.PredictSingle(sampleRecord())
			if err == nil {
				results[i] = res.PredictedVolumeSales
			}
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want.PredictedVolumeSales, got)
	}
}

func TestBatchPredictKeepsRowOrder(t *testing.T) {
	p, err := NewPredictor(trainSample(t))
	require.NoError(t, err)

	a := sampleRecord()
	b := sampleRecord()
	b["size"] = "5L"
	batch, err := p.Predict(models.Table{a, b})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	single, err := p.PredictSingle(b)
	require.NoError(t, err)
	assert.Equal(t, single.PredictedVolumeSales, batch[1])
}
