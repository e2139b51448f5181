package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	storefrontserver "github.com/Apurer/go-gin-storefront-api/go"

	ordersobs "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/observability"
	ordersworkflows "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/go-gin-storefront-api/internal/platform/observability"
)

const serviceName = "storefront-api"

// Run boots the storefront HTTP API with observability, repositories, and workflows wired.
// It returns once ctx is cancelled and the server has drained.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores := BuildStores(ctx, cfg, logger)
	defer cleanupStores()

	var dispatcher orderports.StockAdjustmentDispatcher = ordersworkflows.NewInlineStockAdjustments(stores.Catalog, logger)
	switch {
	case !stores.Durable:
		logger.Warn("in-memory catalogue in use, applying stock adjustments inline")
	default:
		temporalClient, err := ConnectTemporal(cfg, instruments)
		if err != nil {
			logger.Warn("Temporal workflows unavailable, applying stock adjustments inline", slog.String("error", err.Error()))
			break
		}
		defer temporalClient.Close()
		dispatcher = ordersworkflows.NewTemporalStockAdjustments(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	orderService := NewOrderService(stores, dispatcher, cfg, instruments)
	handlers := storefrontserver.ApiHandleFunctions{
		OrderAPI: storefrontserver.NewOrderAPI(orderService),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	router := storefrontserver.NewRouterWithGinEngine(engine, handlers)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Storefront API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Storefront API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Storefront API shutdown failed", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Storefront API stopped")
	return nil
}

// NewOrderService builds the order use cases wrapped in the observability decorator.
func NewOrderService(stores *Stores, dispatcher orderports.StockAdjustmentDispatcher, cfg Config, instruments *platformobservability.Instruments) orderports.Service {
	logger := effectiveLogger(instruments)
	core := ordersapp.NewService(
		stores.Orders,
		stores.Catalog,
		dispatcher,
		ordersapp.WithIdempotencyStore(stores.Idempotency),
		ordersapp.WithProgressionPolicy(cfg.Progression),
		ordersapp.WithLogger(logger),
	)
	return ordersobs.New(
		core,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
}

// ConnectTemporal dials Temporal with the OpenTelemetry tracing interceptor and the
// process logger.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
