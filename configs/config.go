package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// 成果物の保存先バックエンド
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds the application configuration
type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	Environment   string `envconfig:"ENVIRONMENT" default:"development"`
	APIKey        string `envconfig:"API_KEY"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	// 成果物（エンコーダ・スケーラ・モデル）の保存先
	ArtifactBackend string `envconfig:"ARTIFACT_BACKEND" default:"file"`
	ModelDir        string `envconfig:"MODEL_DIR" default:"models"`
	RedisURL        string `envconfig:"REDIS_URL"`
	RedisKeyPrefix  string `envconfig:"REDIS_KEY_PREFIX" default:"oilsales:artifacts"`

	Training TrainingConfig
}

// TrainingConfig 学習時のハイパーパラメータ
type TrainingConfig struct {
	TestSize        float64 `envconfig:"TEST_SIZE" default:"0.2"`
	RandomState     int64   `envconfig:"RANDOM_STATE" default:"42"`
	NEstimators     int     `envconfig:"N_ESTIMATORS" default:"100"`
	MaxDepth        int     `envconfig:"MAX_DEPTH" default:"15"`
	MinSamplesSplit int     `envconfig:"MIN_SAMPLES_SPLIT" default:"10"`
	MinSamplesLeaf  int     `envconfig:"MIN_SAMPLES_LEAF" default:"4"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction は本番環境かどうかを返します。
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate は設定値の範囲を検証します。
func (c *Config) Validate() error {
	switch c.ArtifactBackend {
	case BackendFile:
		if c.ModelDir == "" {
			return fmt.Errorf("MODEL_DIR must not be empty for the file backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when ARTIFACT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown ARTIFACT_BACKEND %q", c.ArtifactBackend)
	}

	t := c.Training
	if t.TestSize <= 0 || t.TestSize >= 1 {
		return fmt.Errorf("TEST_SIZE must be in (0, 1), got %v", t.TestSize)
	}
	if t.NEstimators < 1 {
		return fmt.Errorf("N_ESTIMATORS must be positive, got %d", t.NEstimators)
	}
	if t.MinSamplesSplit < 2 {
		return fmt.Errorf("MIN_SAMPLES_SPLIT must be at least 2, got %d", t.MinSamplesSplit)
	}
	if t.MinSamplesLeaf < 1 {
		return fmt.Errorf("MIN_SAMPLES_LEAF must be at least 1, got %d", t.MinSamplesLeaf)
	}
	return nil
}
