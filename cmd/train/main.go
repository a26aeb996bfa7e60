package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	config "oil-sales-api/configs"
	"oil-sales-api/pkg/artifacts"
	logx "oil-sales-api/pkg/logger"
	"oil-sales-api/pkg/pipeline"
	"oil-sales-api/pkg/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logx.Debug().Err(err).Msg(".env file not loaded")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load config")
	}
	logx.Init(logx.LoggerOpts{Production: cfg.IsProduction()})

	dataPath := flag.String("data", "data/oil_sales_assignment_dataset.csv", "training data (.csv or .xlsx)")
	outDir := flag.String("out", cfg.ModelDir, "output directory for the file backend")
	backend := flag.String("backend", cfg.ArtifactBackend, "artifact backend: file or redis")
	flag.Parse()

	cfg.ModelDir = *outDir
	cfg.ArtifactBackend = *backend
	if err := cfg.Validate(); err != nil {
		logx.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	store, closeStore, err := artifacts.OpenStore(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to open artifact store")
	}
	defer closeStore()

	svc := services.NewTrainingService(services.NewDatasetService(), store, pipeline.OptionsFromConfig(cfg.Training))
	bundle, metrics, err := svc.Run(ctx, *dataPath)
	if err != nil {
		logx.Error().Err(err).Str("data", *dataPath).Msg("training failed")
		os.Exit(1)
	}

	fmt.Printf("bundle: %s\n", bundle.Manifest.BundleID)
	fmt.Printf("R2:   %.4f\n", metrics.R2)
	fmt.Printf("RMSE: %.4f\n", metrics.RMSE)
	fmt.Printf("MAE:  %.4f\n", metrics.MAE)
}
