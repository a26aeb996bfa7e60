//go:build ignore

package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	config "oil-sales-api/configs"
	"oil-sales-api/pkg/artifacts"
)

func main() {
	log.Println("🔍 公開中のモデルバンドルを確認します...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx := context.Background()
	store, closeStore, err := artifacts.OpenStore(ctx, cfg)
	defer closeStore()
	if err != nil {
		log.Fatalf("保存先を開けません: %v", err)
	}

	bundle, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("❌ バンドルの検証に失敗: %v", err)
	}

	log.Printf("✅ バンドル %s は整合しています (backend=%s)", bundle.Manifest.BundleID, cfg.ArtifactBackend)
	for col, vocab := range bundle.Features.Vocabularies {
		log.Printf("  %-14s %d classes (fallback=%q)", col, vocab.Len(), vocab.Classes[vocab.FallbackCode()])
	}
	log.Printf("  brands         %d", len(bundle.Features.BrandFrequency))

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(&bundle.Manifest); err != nil {
		log.Fatalf("マニフェストの出力に失敗: %v", err)
	}
}
