package services

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"oil-sales-api/internal/sampledata"
	"oil-sales-api/pkg/artifacts"
	"oil-sales-api/pkg/models"
	"oil-sales-api/pkg/pipeline"
	"oil-sales-api/pkg/regressor"
)

func TestDatasetServiceReadCSV(t *testing.T) {
	data := "City ,Store Name,size,volume_sales\nCairo,Store A,1L,10\n,,,\nGiza,Store B\n"
	table, err := NewDatasetService().Read(strings.NewReader(data), "sales.csv")
	require.NoError(t, err)
	require.Len(t, table, 2, "blank rows are skipped")

	assert.Equal(t, "Cairo", table[0]["city"])
	assert.Equal(t, "Store A", table[0]["store_name"])
	assert.Equal(t, "10", table[0]["volume_sales"])

	// 短い行の不足セルは欠損値になる
	v, ok := table[1]["volume_sales"]
	assert.True(t, ok)
	assert.True(t, models.IsMissing(v))
}

func TestDatasetServiceReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"city", "brand", "volume_sales"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Cairo", "Crystal", 12.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := NewDatasetService().Read(buf, "sales.xlsx")
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Crystal", table[0]["brand"])
	assert.Equal(t, "12.5", table[0]["volume_sales"])
}

func TestDatasetServiceRejectsBadInput(t *testing.T) {
	s := NewDatasetService()
	_, err := s.Read(strings.NewReader("a,b\n"), "only-header.csv")
	assert.Error(t, err)

	_, err = s.Read(strings.NewReader("{}"), "data.json")
	assert.Error(t, err)

	_, err = s.Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func writeSampleCSV(t *testing.T, path string, table models.Table) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(models.RequiredColumns))
	for _, rec := range table {
		row := make([]string, len(models.RequiredColumns))
		for i, col := range models.RequiredColumns {
			row[i] = rec[col]
		}
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
}

func TestTrainingServiceRun(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "sales.csv")
	writeSampleCSV(t, dataPath, sampledata.Generate(150, 5))

	store := artifacts.NewFileStore(filepath.Join(dir, "models"))
	opts := pipeline.Options{
		TestSize:    0.2,
		RandomState: 42,
		Factory:     regressor.ForestFactory(regressor.WithNEstimators(5), regressor.WithMaxDepth(6)),
	}
	svc := NewTrainingService(NewDatasetService(), store, opts)

	bundle, metrics, err := svc.Run(context.Background(), dataPath)
	require.NoError(t, err)
	assert.Equal(t, metrics, bundle.Manifest.Metrics)
	require.NotNil(t, bundle.Manifest.TargetSummary)
	assert.Equal(t, 150, bundle.Manifest.TargetSummary.Count)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bundle.Manifest.BundleID, loaded.Manifest.BundleID)
}

func TestTrainingServiceHonoursCancellation(t *testing.T) {
	store := artifacts.NewFileStore(filepath.Join(t.TempDir(), "models"))
	opts := pipeline.Options{
		TestSize:    0.2,
		RandomState: 1,
		Factory:     regressor.ForestFactory(regressor.WithNEstimators(2)),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewTrainingService(NewDatasetService(), store, opts).Train(ctx, sampledata.Generate(40, 1))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Load(context.Background())
	assert.Error(t, err, "nothing is published")
}

func TestMonitoringMiddlewareAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewMonitoringService()

	r := gin.New()
	r.Use(svc.LoggingMiddleware())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/api/v1/admin/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(svc.MetricsHandler()))

	for _, path := range []string{"/ok", "/ok", "/boom", "/api/v1/admin/x"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}
	svc.RecordPrediction(OutcomeSuccess, 42)
	svc.RecordPrediction(OutcomeClientError, 0)

	data := svc.GetDashboardData(1)
	assert.Equal(t, map[string]int{"/ok": 2, "/boom": 1}, data.Endpoints)
	require.Len(t, data.RecentErrors, 1)
	assert.Equal(t, "/boom", data.RecentErrors[0].Path)
	require.Len(t, data.RequestsOverTime, 1)
	assert.Equal(t, 3, data.RequestsOverTime[0]["requests"])

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `oilsales_http_requests_total{method="GET",path="/ok",status="200"} 2`)
	assert.Contains(t, body, `oilsales_predictions_total{outcome="success"} 1`)
	assert.Contains(t, body, `oilsales_predictions_total{outcome="client_error"} 1`)
	assert.Contains(t, body, "oilsales_prediction_value_count 1")
}

func TestMonitoringLogRetention(t *testing.T) {
	svc := NewMonitoringService()
	for i := 0; i < maxLogEntries+10; i++ {
		svc.LogRequest(LogEntry{Path: "/predict"})
	}
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Len(t, svc.logs, maxLogEntries)
}

func TestSummarizeTarget(t *testing.T) {
	table := models.Table{
		{"volume_sales": "10", "month": "1"},
		{"volume_sales": "20", "month": "2"},
		{"volume_sales": "30", "month": "7"},
		{"volume_sales": "40", "month": "7"},
		{"volume_sales": "-5", "month": "7"},
		{"volume_sales": "", "month": "7"},
	}
	summary := NewStatisticsService().SummarizeTarget(table)
	require.NotNil(t, summary)
	assert.Equal(t, 4, summary.Count)
	assert.InDelta(t, 25.0, summary.Mean, 1e-9)
	assert.InDelta(t, 25.0, summary.Median, 1e-9)
	assert.Equal(t, 10.0, summary.Min)
	assert.Equal(t, 40.0, summary.Max)
	assert.InDelta(t, 11.1803, summary.StdDev, 1e-4)
	assert.Equal(t, map[string]float64{"Winter": 15, "Summer": 35}, summary.SeasonAverage)

	assert.Nil(t, NewStatisticsService().SummarizeTarget(models.Table{{"volume_sales": "0"}}))
}
