package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecommerce/etl/internal/application/transform"
	"github.com/ecommerce/etl/internal/infrastructure/config"
	"github.com/ecommerce/etl/internal/infrastructure/kpisink"
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

	log.Info("Starting transformation stage",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("sink", cfg.Sink.Backend),
	)

	store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	sink, closeSink, err := newSink(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize KPI sink", zap.Error(err))
	}
	defer closeSink()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := transform.NewService(store, sink, log)
	if err := svc.Run(ctx); err != nil {
		log.Error("Transformation stage failed", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

// newSink builds the configured key-value sink. The returned close function
// is a no-op for sinks without a connection to release.
func newSink(cfg *config.Config, log *zap.Logger) (kpisink.Writer, func(), error) {
	switch cfg.Sink.Backend {
	case config.SinkBackendRedis:
		w, err := kpisink.NewRedisWriter(&cfg.Redis, &cfg.Sink)
		if err != nil {
			return nil, nil, err
		}
		return w, func() {
			if err := w.Close(); err != nil {
				log.Error("Error closing Redis sink", zap.Error(err))
			}
		}, nil
	default:
		w, err := kpisink.NewDynamoDBWriter(&cfg.Storage, &cfg.Sink, kpisink.WithDynamoDBLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return w, func() {}, nil
	}
}
