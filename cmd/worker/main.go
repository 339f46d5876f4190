package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"solarsmart/api/internal/cache"
	"solarsmart/api/internal/config"
	"solarsmart/api/internal/database"
	"solarsmart/api/internal/log"
	"solarsmart/api/internal/queue"
	"solarsmart/api/internal/reports"
	"solarsmart/api/internal/repository"
	"solarsmart/api/internal/storage"
	"solarsmart/api/internal/tasks"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}

	logger := log.Component(log.New(cfg.Environment), "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ensure buckets failed")
	}

	exporter := reports.NewExporter(repository.NewLoginRepository(dbPool), objectStore, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Reports.Stream,
		cfg.Reports.Group,
		cfg.Reports.Consumer,
		cfg.Reports.ClaimInterval,
		logger,
		tasks.NewProcessor(exporter, logger),
	)

	logger.Info().Str("stream", cfg.Reports.Stream).Str("group", cfg.Reports.Group).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
	}
	logger.Info().Msg("worker exited")
}
