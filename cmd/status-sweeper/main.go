package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-storefront-api/internal/app/api"
	ordersapp "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application"
	platformobservability "github.com/Apurer/go-gin-storefront-api/internal/platform/observability"
)

// status-sweeper runs one order status sweep and exits, for use from an external cron.
func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always runs before exiting.
func run() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger := platformobservability.NewLogger(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}
	if cfg.PostgresDSN == "" {
		logger.Error("POSTGRES_DSN not set; nothing to sweep")
		return 1
	}
	stores, cleanup := api.BuildStores(ctx, cfg, logger)
	defer cleanup()
	if !stores.Durable {
		logger.Error("postgres connection failed; cannot sweep order statuses")
		return 1
	}

	service := ordersapp.NewService(stores.Orders, stores.Catalog, nil,
		ordersapp.WithProgressionPolicy(cfg.Progression),
		ordersapp.WithLogger(logger),
	)
	result, err := service.SweepStatuses(ctx)
	if err != nil {
		logger.Error("failed to sweep order statuses", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("order status sweep completed",
		slog.Int("examined", result.Examined),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed))
	return 0
}
