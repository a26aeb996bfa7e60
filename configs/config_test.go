package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"PORT", "ENVIRONMENT", "API_KEY", "ARTIFACT_BACKEND", "MODEL_DIR",
	"REDIS_URL", "TEST_SIZE", "RANDOM_STATE", "N_ESTIMATORS", "MAX_DEPTH",
}

func clearConfigEnv(t *testing.T) {
	for _, v := range configVars {
		os.Unsetenv(v)
	}
}

func TestLoadConfig(t *testing.T) {
	clearConfigEnv(t)

	// テスト用の環境変数を設定
	testCases := map[string]string{
		"PORT":         "9090",
		"ENVIRONMENT":  "test",
		"API_KEY":      "test-key",
		"MODEL_DIR":    "/tmp/models",
		"TEST_SIZE":    "0.25",
		"RANDOM_STATE": "7",
		"N_ESTIMATORS": "20",
	}
	for key, value := range testCases {
		t.Setenv(key, value)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "/tmp/models", cfg.ModelDir)
	assert.Equal(t, 0.25, cfg.Training.TestSize)
	assert.Equal(t, int64(7), cfg.Training.RandomState)
	assert.Equal(t, 20, cfg.Training.NEstimators)
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// デフォルト値の検証
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, BackendFile, cfg.ArtifactBackend)
	assert.Equal(t, "models", cfg.ModelDir)
	assert.Equal(t, 0.2, cfg.Training.TestSize)
	assert.Equal(t, int64(42), cfg.Training.RandomState)
	assert.Equal(t, 100, cfg.Training.NEstimators)
	assert.Equal(t, 15, cfg.Training.MaxDepth)
	assert.Equal(t, 10, cfg.Training.MinSamplesSplit)
	assert.Equal(t, 4, cfg.Training.MinSamplesLeaf)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	clearConfigEnv(t)

	t.Run("redis without url", func(t *testing.T) {
		t.Setenv("ARTIFACT_BACKEND", "redis")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("test size out of range", func(t *testing.T) {
		t.Setenv("TEST_SIZE", "1.5")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("ARTIFACT_BACKEND", "s3")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
