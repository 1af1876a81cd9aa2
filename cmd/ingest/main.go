package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"medication-agent/internal/ai"
	"medication-agent/internal/config"
	"medication-agent/internal/ingest"
	"medication-agent/internal/model"
	postgresClient "medication-agent/internal/platform/postgres"
	qdrantClient "medication-agent/internal/platform/qdrant"
	"medication-agent/internal/repository"
)

func main() {
	_ = godotenv.Load()

	var (
		dataPath = flag.String("file", "", "path to a JSON batch of label records, keyed by product alias")
		recreate = flag.Bool("recreate", false, "drop and recreate the vector collection before indexing")
		workers  = flag.Int("workers", 0, "concurrent products (0 uses the configured default)")
	)
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dataPath, *recreate, *workers); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
}

func run(dataPath string, recreate bool, workers int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}
	if workers <= 0 {
		workers = cfg.Ingest.Workers
	}

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return fmt.Errorf("read batch file failed: %w", err)
	}
	var batch ingest.Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return fmt.Errorf("parse batch file failed: %w", err)
	}
	if len(batch) == 0 {
		return fmt.Errorf("batch file %s holds no records", dataPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgDB, err := postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := pgDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := pgDB.AutoMigrate(
		&model.Product{},
		&model.ProductAlias{},
		&model.ProductIngredient{},
		&model.ProductSection{},
	); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	embedder := ai.NewClient(ai.Config{
		BaseURL:           cfg.Embedding.BaseURL,
		APIKey:            cfg.Embedding.APIKey,
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		Timeout:           time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		MaxRetries:        uint64(cfg.Embedding.MaxRetries),
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})

	qdrant := qdrantClient.New(qdrantClient.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		Timeout:    time.Duration(cfg.Qdrant.TimeoutSeconds) * time.Second,
		MaxRetries: uint64(cfg.Qdrant.MaxRetries),
	})

	pipeline := ingest.NewPipeline(
		repository.NewProductRepository(pgDB),
		repository.NewAliasRepository(pgDB),
		repository.NewIngredientRepository(pgDB),
		repository.NewSectionRepository(pgDB),
		embedder,
		qdrant,
		ingest.Options{
			VectorDim:          cfg.Embedding.Dimensions,
			MaxChunkLen:        cfg.Ingest.MaxChunkLen,
			Workers:            workers,
			RecreateCollection: recreate || cfg.Qdrant.Recreate,
		},
	)

	started := time.Now()
	report, err := pipeline.Run(ctx, batch)
	if err != nil {
		return err
	}

	log.Printf("ingested %d records in %s, %d errors",
		report.Processed, time.Since(started).Round(time.Millisecond), len(report.Errors))
	for _, recordErr := range report.Errors {
		log.Printf("  record %s (alias %q): %s", recordErr.ItemSeq, recordErr.Alias, recordErr.Reason)
	}
	return nil
}
