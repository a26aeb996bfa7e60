package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	config "oil-sales-api/configs"
	"oil-sales-api/pkg/artifacts"
	"oil-sales-api/pkg/handlers"
	logx "oil-sales-api/pkg/logger"
	"oil-sales-api/pkg/pipeline"
	"oil-sales-api/pkg/services"
)

// loadPredictor は起動時に一度だけバンドルをロードします。
// 失敗した場合は nil を返し、予測APIは503を返します。
func loadPredictor(ctx context.Context, cfg *config.Config) *pipeline.Predictor {
	store, closeStore, err := artifacts.OpenStore(ctx, cfg)
	defer closeStore()
	if err != nil {
		logx.Error().Err(err).Str("backend", cfg.ArtifactBackend).Msg("failed to open artifact store")
		return nil
	}
	bundle, err := store.Load(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("failed to load model bundle; predictions are disabled")
		return nil
	}
	predictor, err := pipeline.NewPredictor(bundle)
	if err != nil {
		logx.Error().Err(err).Msg("failed to build predictor")
		return nil
	}
	logx.Info().Str("bundle_id", bundle.Manifest.BundleID).
		Time("created_at", bundle.Manifest.CreatedAt).
		Float64("r2", bundle.Manifest.Metrics.R2).
		Msg("model bundle loaded")
	return predictor
}

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		logx.Warn().Err(err).Msg(".env file not found or could not be loaded")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load config")
	}
	logx.Init(logx.LoggerOpts{Production: cfg.IsProduction()})
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	predictor := loadPredictor(loadCtx, cfg)
	cancel()

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:     cfg,
		Predictor:  predictor,
		Monitoring: services.NewMonitoringService(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", srv.Addr).Msg("starting oil sales prediction server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
}
