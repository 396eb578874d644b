// kakeibo-worker keeps recurring rules materialized: it runs a sync pass
// on startup and then on a fixed interval until stopped.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kakeibo/internal/config"
	"kakeibo/internal/core"
	"kakeibo/internal/fx"
	"kakeibo/internal/log"
	"kakeibo/internal/services"
	"kakeibo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting kakeibo-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	conv := fx.NewConverter(cfg.HomeCurrency, repo)
	recurring := services.NewRecurringService(repo, conv, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Recurring sync configured",
		"interval", cfg.SyncInterval, "sqlite_db", cfg.SQLiteDBPath)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runSyncLoop(ctx, logger, recurring, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Kakeibo-worker shutdown complete")
}

// runSyncLoop runs one pass immediately, then one per tick until the
// context is cancelled. A failed pass is logged and retried on the next
// tick rather than stopping the worker.
func runSyncLoop(ctx context.Context, logger *log.Logger, recurring *services.RecurringService, interval time.Duration) error {
	runOnce(ctx, logger, recurring)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runOnce(ctx, logger, recurring)
		}
	}
}

func runOnce(ctx context.Context, logger *log.Logger, recurring *services.RecurringService) {
	stats, err := recurring.Sync(ctx, nil, core.Date{})
	if err != nil {
		logger.Error("Recurring sync failed", log.FieldError, err)
		return
	}
	logger.Info("Recurring sync complete",
		"inserted", stats.Inserted, "duplicates", stats.Duplicates)
}
