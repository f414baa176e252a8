package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"feedhub/internal/app"
	"feedhub/internal/infra/fetcher"
	workerPkg "feedhub/internal/infra/worker"
	"feedhub/internal/observability/logging"
	"feedhub/internal/pkg/config"
)

// shutdownGrace bounds how long an in-flight cycle may run after a signal.
const shutdownGrace = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	src, err := loadSource(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewMetrics(nil)
	workerConfig := workerPkg.LoadConfig(src, logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("schedule", workerConfig.Schedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("cycle_timeout", workerConfig.CycleTimeout),
		slog.Int("concurrency", workerConfig.Concurrency),
		slog.Int("ops_port", workerConfig.OpsPort),
		slog.Bool("run_on_start", workerConfig.RunOnStart))

	fetchConfig, err := fetcher.LoadConfig(src)
	if err != nil {
		return fmt.Errorf("load fetcher configuration: %w", err)
	}

	dsn, _ := src.Get("DATABASE_URL")
	application, err := app.New(ctx, app.Options{
		DSN:         dsn,
		Fetcher:     fetchConfig,
		Concurrency: workerConfig.Concurrency,
		Migrate:     true,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	scheduler, err := workerPkg.NewScheduler(application.Refresh, workerConfig, workerMetrics, logger)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	ops := workerPkg.NewOpsServer(fmt.Sprintf(":%d", workerConfig.OpsPort), scheduler, application.DB, nil, logger)
	opsDone := make(chan struct{})
	go func() {
		defer close(opsDone)
		if err := ops.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", slog.Any("error", err))
		}
	}()

	go application.ReportPoolStats(ctx, 15*time.Second)

	scheduler.Start()
	ops.SetReady(true)

	<-ctx.Done()
	logger.Info("shutdown signal received")
	ops.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler did not stop cleanly", slog.Any("error", err))
	}
	<-opsDone

	logger.Info("worker stopped")
	return nil
}

// loadSource reads WORKER_CONFIG_FILE when set. Environment variables always
// take precedence over the file.
func loadSource(logger *slog.Logger) (*config.Source, error) {
	path := os.Getenv("WORKER_CONFIG_FILE")
	if path == "" {
		return config.EnvSource(), nil
	}
	src, err := config.NewSource(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	logger.Info("configuration file loaded", slog.String("path", path))
	return src, nil
}
