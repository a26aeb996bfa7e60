package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	config "oil-sales-api/configs"
	"oil-sales-api/pkg/artifacts"
	"oil-sales-api/pkg/handlers"
	logx "oil-sales-api/pkg/logger"
	"oil-sales-api/pkg/pipeline"
	"oil-sales-api/pkg/services"
)

var (
	app  *gin.Engine
	once sync.Once
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境ではリクエストごとに初期化しないよう sync.Once で一度だけ実行します。
// 環境変数はプラットフォーム側で設定されるため godotenv は使いません。
func setupApp() *gin.Engine {
	once.Do(func() {
		logx.Init(logx.LoggerOpts{Production: true})
		gin.SetMode(gin.ReleaseMode)

		cfg, err := config.LoadConfig()
		if err != nil {
			logx.Error().Err(err).Msg("failed to load config; using defaults")
			cfg = &config.Config{ArtifactBackend: config.BackendFile, ModelDir: "models"}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var predictor *pipeline.Predictor
		store, closeStore, err := artifacts.OpenStore(ctx, cfg)
		if err == nil {
			var bundle *artifacts.Bundle
			if bundle, err = store.Load(ctx); err == nil {
				predictor, err = pipeline.NewPredictor(bundle)
			}
		}
		closeStore()
		if err != nil {
			logx.Error().Err(err).Msg("model bundle unavailable")
		}

		app = handlers.NewRouter(handlers.RouterDeps{
			Config:     cfg,
			Predictor:  predictor,
			Monitoring: services.NewMonitoringService(),
		})
	})
	return app
}

// Handler はサーバーレス関数のエントリポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	setupApp().ServeHTTP(w, r)
}
