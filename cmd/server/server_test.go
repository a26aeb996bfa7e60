package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "oil-sales-api/configs"
	"oil-sales-api/internal/sampledata"
	"oil-sales-api/pkg/artifacts"
	"oil-sales-api/pkg/handlers"
	"oil-sales-api/pkg/pipeline"
	"oil-sales-api/pkg/regressor"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func fileConfig(dir string) *config.Config {
	return &config.Config{ArtifactBackend: config.BackendFile, ModelDir: dir}
}

func TestLoadPredictorWithoutBundle(t *testing.T) {
	p := loadPredictor(context.Background(), fileConfig(filepath.Join(t.TempDir(), "models")))
	assert.Nil(t, p)

	r := handlers.NewRouter(handlers.RouterDeps{Config: &config.Config{}, Predictor: p})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLoadPredictorFromFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	opts := pipeline.Options{
		TestSize:    0.2,
		RandomState: 42,
		Factory:     regressor.ForestFactory(regressor.WithNEstimators(3)),
	}
	bundle, _, err := pipeline.Train(sampledata.Generate(80, 4), opts)
	require.NoError(t, err)
	require.NoError(t, artifacts.NewFileStore(dir).Save(context.Background(), bundle))

	p := loadPredictor(context.Background(), fileConfig(dir))
	require.NotNil(t, p)
	assert.Equal(t, bundle.Manifest.BundleID, p.Manifest().BundleID)

	r := handlers.NewRouter(handlers.RouterDeps{Config: &config.Config{}, Predictor: p})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoadPredictorUnknownBackend(t *testing.T) {
	assert.Nil(t, loadPredictor(context.Background(), &config.Config{ArtifactBackend: "s3"}))
}
