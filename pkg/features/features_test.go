package features

import (
	"encoding/json"
	"testing"

	"oil-sales-api/pkg/errx"
	"oil-sales-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(city, brand, class, size string, month float64) models.SalesRecord {
	return models.SalesRecord{
		City:         city,
		StoreName:    "S1",
		Manufacturer: "M",
		Brand:        brand,
		Class:        class,
		Size:         size,
		PriceBracket: "P1",
		Year:         2023,
		Month:        month,
		ValueSales:   100,
		AveragePrice: 3,
	}
}

func fit(t *testing.T, rows []models.SalesRecord) (*Frame, *State) {
	t.Helper()
	derived, state, err := DeriveFeatures(rows, nil, true)
	require.NoError(t, err)
	frame, state, err := Encode(derived, state, true)
	require.NoError(t, err)
	return frame, state
}

func TestExtractSize(t *testing.T) {
	testCases := []struct {
		size     string
		expected float64
	}{
		{"1.5L", 1.5},
		{"500ml", 500},
		{"4 x 1L", 4},
		{"5.", 5},
		{"Large", 1.0},
		{"", 1.0},
		{"L.5", 5},
		{"size 0L", 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ExtractSize(tc.size), "ExtractSize(%q)", tc.size)
	}
}

func TestSeason(t *testing.T) {
	testCases := []struct {
		month    float64
		expected string
	}{
		{12, SeasonWinter}, {1, SeasonWinter}, {2, SeasonWinter},
		{3, SeasonSpring}, {5, SeasonSpring},
		{6, SeasonSummer}, {7, SeasonSummer}, {8, SeasonSummer},
		{9, SeasonFall}, {11, SeasonFall},
		{0, SeasonUnknown}, {13, SeasonUnknown}, {6.5, SeasonUnknown},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Season(tc.month), "Season(%v)", tc.month)
	}
}

func TestPricePerLiterZeroSize(t *testing.T) {
	assert.Equal(t, 2.0, PricePerLiter(3, 1.5))
	assert.Equal(t, ZeroSizePricePerLiter, PricePerLiter(3, 0))
}

func TestDeriveFeaturesScenario(t *testing.T) {
	rows := []models.SalesRecord{record("X", "B", "C1", "1.5L", 7)}
	derived, state, err := DeriveFeatures(rows, nil, true)
	require.NoError(t, err)
	require.Len(t, derived, 1)

	assert.Equal(t, SeasonSummer, derived[0].Season)
	assert.Equal(t, 1.5, derived[0].SizeNumeric)
	assert.Equal(t, 2.0, derived[0].PricePerLiter)
	assert.Equal(t, 1.0, derived[0].BrandFrequency)
	assert.Equal(t, BrandFrequency{"B": 1}, state.BrandFrequency)
}

func TestUnseenBrandFrequencyIsOne(t *testing.T) {
	rows := []models.SalesRecord{
		record("X", "B", "C1", "1L", 1),
		record("X", "B", "C1", "1L", 2),
	}
	_, state := fit(t, rows)

	derived, returned, err := DeriveFeatures([]models.SalesRecord{
		record("X", "B", "C1", "1L", 3),
		record("X", "NewBrand", "C1", "1L", 3),
	}, state, false)
	require.NoError(t, err)
	assert.Same(t, state, returned)
	assert.Equal(t, 2.0, derived[0].BrandFrequency)
	assert.Equal(t, 1.0, derived[1].BrandFrequency)
}

func TestUnseenCategoryUsesFallbackCode(t *testing.T) {
	rows := []models.SalesRecord{
		record("Zurich", "B", "C2", "1L", 1),
		record("Berlin", "A", "C1", "1L", 7),
	}
	_, state := fit(t, rows)

	for i := 0; i < 3; i++ {
		derived, _, err := DeriveFeatures([]models.SalesRecord{record("Unseen", "B", "C9", "1L", 7)}, state, false)
		require.NoError(t, err)
		frame, _, err := Encode(derived, state, false)
		require.NoError(t, err)

		city, _ := frame.Column("city_enc")
		class, _ := frame.Column("class_enc")
		assert.Equal(t, float64(state.Vocabularies["city"].FallbackCode()), city[0])
		assert.Equal(t, 0.0, city[0])
		assert.Equal(t, 0.0, class[0])
	}
	assert.Equal(t, []string{"Berlin", "Zurich"}, state.Vocabularies["city"].Classes)
}

func TestTrainServeParity(t *testing.T) {
	rows := []models.SalesRecord{
		record("X", "B", "C1", "1.5L", 7),
		record("Y", "A", "C2", "500ml", 12),
		record("X", "A", "C1", "Large", 4),
	}
	trainFrame, state := fit(t, rows)
	trainX, err := trainFrame.Matrix(FeatureColumns())
	require.NoError(t, err)

	for i, r := range rows {
		derived, _, err := DeriveFeatures([]models.SalesRecord{r}, state, false)
		require.NoError(t, err)
		frame, _, err := Encode(derived, state, false)
		require.NoError(t, err)
		serveX, err := frame.Matrix(FeatureColumns())
		require.NoError(t, err)
		assert.Equal(t, trainX[i], serveX[0], "row %d", i)
	}
}

func TestTrainingDoesNotMutatePriorState(t *testing.T) {
	_, first := fit(t, []models.SalesRecord{record("X", "B", "C1", "1L", 1)})
	firstFreq := first.BrandFrequency
	firstCity := first.Vocabularies["city"]

	derived, second, err := DeriveFeatures([]models.SalesRecord{record("Y", "Z", "C1", "1L", 1)}, first, true)
	require.NoError(t, err)
	_, second, err = Encode(derived, second, true)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, BrandFrequency{"B": 1}, firstFreq)
	assert.Equal(t, BrandFrequency{"B": 1}, first.BrandFrequency)
	assert.Same(t, firstCity, first.Vocabularies["city"])
	assert.Equal(t, []string{"Y"}, second.Vocabularies["city"].Classes)
}

func TestServingWithoutStateIsNotFitted(t *testing.T) {
	rows := []models.SalesRecord{record("X", "B", "C1", "1L", 1)}
	_, _, err := DeriveFeatures(rows, nil, false)
	assert.ErrorIs(t, err, errx.ErrNotFitted)

	_, _, err = Encode([]DerivedRow{{SalesRecord: rows[0]}}, &State{BrandFrequency: BrandFrequency{}}, false)
	assert.ErrorIs(t, err, errx.ErrNotFitted)
}

func TestFeatureColumnsOrder(t *testing.T) {
	expected := []string{
		"year", "month", "value_sales", "average_price", "size_numeric", "price_per_liter", "brand_frequency",
		"city_enc", "manufacturer_enc", "brand_enc", "class_enc", "season_enc",
	}
	first := FeatureColumns()
	assert.Equal(t, expected, first)

	first[0] = "mutated"
	assert.Equal(t, expected, FeatureColumns())
}

func TestFrameMatrixRejectsUnknownColumn(t *testing.T) {
	frame, _ := fit(t, []models.SalesRecord{record("X", "B", "C1", "1L", 1)})
	_, err := frame.Matrix([]string{"year", "not_a_feature"})
	assert.Error(t, err)
}

func TestStateJSONRoundTrip(t *testing.T) {
	_, state := fit(t, []models.SalesRecord{
		record("X", "B", "C1", "1L", 1),
		record("Y", "A", "C2", "2L", 7),
	})
	data, err := json.Marshal(state)
	require.NoError(t, err)

	var restored State
	require.NoError(t, json.Unmarshal(data, &restored))
	require.NoError(t, restored.Validate())

	code, ok := restored.Vocabularies["city"].Code("Y")
	assert.True(t, ok)
	assert.Equal(t, 1, code)
	assert.Equal(t, state.BrandFrequency, restored.BrandFrequency)
}
