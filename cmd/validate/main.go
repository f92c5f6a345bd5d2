package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecommerce/etl/internal/application/validation"
	"github.com/ecommerce/etl/internal/infrastructure/config"
	"github.com/ecommerce/etl/internal/infrastructure/logger"
	"github.com/ecommerce/etl/internal/infrastructure/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting validation stage",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("bucket", cfg.Storage.Bucket),
	)

	store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := validation.NewService(store, log)
	if err := svc.Run(ctx); err != nil {
		log.Error("Validation stage failed", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}
