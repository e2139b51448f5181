package api

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	catalogmemory "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/ports"
	ordersmemory "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/persistence/postgres"
	ordersredis "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/persistence/redis"
	orderports "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront-api/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-storefront-api/internal/platform/postgres"
	platformredis "github.com/Apurer/go-gin-storefront-api/internal/platform/redis"
)

// Stores bundles the persistence adapters shared by the API, worker and sweeper.
type Stores struct {
	Orders      orderports.Repository
	Catalog     catalogports.Repository
	Idempotency orderports.IdempotencyStore
	// Durable is true when the stores outlive the process, which durable workflows need.
	Durable bool
}

// BuildStores picks PostgreSQL (and Redis for idempotency keys) when configured and falls
// back to in-memory adapters otherwise. The returned cleanup closes every connection.
func BuildStores(ctx context.Context, cfg Config, logger *slog.Logger) (*Stores, func()) {
	stores := &Stores{
		Orders:      ordersmemory.NewRepository(),
		Catalog:     catalogmemory.NewRepository(),
		Idempotency: ordersmemory.NewIdempotencyStore(),
	}
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if db := connectPostgres(ctx, cfg, logger); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			cleanups = append(cleanups, func() { _ = sqlDB.Close() })
		}
		stores.Orders = orderspostgres.NewRepository(db)
		stores.Catalog = catalogpostgres.NewRepository(db)
		stores.Idempotency = orderspostgres.NewIdempotencyStore(db)
		stores.Durable = true
		logger.Info("order and catalogue repositories configured with postgres")
	} else {
		logger.Warn("POSTGRES_DSN not set or unreachable, falling back to in-memory repositories")
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("failed to connect to redis, keeping previous idempotency store", slog.String("error", err.Error()))
		} else {
			cleanups = append(cleanups, func() { _ = client.Close() })
			stores.Idempotency = ordersredis.NewIdempotencyStore(client, ordersredis.DefaultTTL)
			logger.Info("idempotency keys configured with redis")
		}
	}
	return stores, cleanup
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) *gorm.DB {
	if cfg.PostgresDSN == "" {
		return nil
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres", slog.String("error", err.Error()))
		return nil
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to apply schema migrations", slog.String("error", err.Error()))
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		return nil
	}
	return db
}
