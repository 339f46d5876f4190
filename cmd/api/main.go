package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"solarsmart/api/internal/analytics"
	"solarsmart/api/internal/cache"
	"solarsmart/api/internal/config"
	"solarsmart/api/internal/database"
	"solarsmart/api/internal/handlers"
	"solarsmart/api/internal/jobs"
	"solarsmart/api/internal/log"
	"solarsmart/api/internal/metrics"
	"solarsmart/api/internal/queue"
	"solarsmart/api/internal/repository"
	"solarsmart/api/internal/security"
	"solarsmart/api/internal/server"
	"solarsmart/api/internal/service"
	"solarsmart/api/internal/storage"
	"solarsmart/api/internal/tasks"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(dbPool, log.Component(logger, "migrate")); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
	}

	if cfg.Storage.Enabled {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBuckets(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure buckets failed")
		}
	}

	users := repository.NewUserRepository(dbPool)
	logins := repository.NewLoginRepository(dbPool)
	hasher := security.NewPasswordHasher(cfg.Security.PasswordAlgorithm, cfg.Security.BcryptCost)
	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	deps := handlers.Dependencies{
		Auth:      service.NewAuthService(users, logins, hasher, tokens, log.Component(logger, "auth")),
		Users:     service.NewUserService(users, logins),
		Analytics: analytics.NewEngine(logins),
		Tokens:    tokens,
		Metrics:   m,
		Health: map[string]handlers.HealthCheck{
			"database": dbPool.Ping,
		},
	}
	if redisClient != nil {
		deps.Health["cache"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	var scheduler *jobs.Scheduler
	if cfg.ReportsEnabled() {
		dispatcher := tasks.NewDispatcher(queue.NewPublisher(redisClient, cfg.Reports.Stream))
		deps.Reports = dispatcher
		scheduler = jobs.NewScheduler(dispatcher, cache.NewLocker(redisClient), cfg.Reports.Schedule, log.Component(logger, "scheduler"))
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, deps)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, m)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn().Msg("scheduler jobs still running at exit")
		}
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
