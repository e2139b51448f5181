package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-storefront-api/internal/app/api"
	orderactivities "github.com/Apurer/go-gin-storefront-api/internal/durable/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-storefront-api/internal/durable/temporal/workflows/orders"
	platformobservability "github.com/Apurer/go-gin-storefront-api/internal/platform/observability"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always runs before exiting.
func run() int {
	ctx := context.Background()
	const serviceName = "storefront-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Printf("failed to initialize observability: %v", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}
	stores, cleanupStores := api.BuildStores(ctx, cfg, logger)
	defer cleanupStores()
	if !stores.Durable {
		logger.Warn("worker running against in-memory repositories; adjustments will not reach the API process")
	}

	// Sweeps never create orders, so the service needs no dispatcher.
	orderService := api.NewOrderService(stores, nil, cfg, instruments)
	activities := orderactivities.NewActivities(stores.Catalog, orderService)

	temporalClient, err := api.ConnectTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		return 1
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.FulfillmentTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.StockAdjustmentWorkflow, workflow.RegisterOptions{Name: orderworkflows.StockAdjustmentWorkflowName})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderStatusSweepWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderStatusSweepWorkflowName})
	w.RegisterActivityWithOptions(activities.ApplyStockAdjustment, activity.RegisterOptions{Name: orderactivities.ApplyStockAdjustmentActivityName})
	w.RegisterActivityWithOptions(activities.SweepOrderStatuses, activity.RegisterOptions{Name: orderactivities.SweepOrderStatusesActivityName})

	if cfg.SweepCron != "" {
		if err := scheduleStatusSweep(ctx, temporalClient, cfg.SweepCron); err != nil {
			logger.Error("failed to schedule order status sweep", slog.String("cron", cfg.SweepCron), slog.String("error", err.Error()))
		} else {
			logger.Info("order status sweep scheduled", slog.String("cron", cfg.SweepCron))
		}
	}

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.FulfillmentTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("Temporal worker stopped")
	return 0
}

func scheduleStatusSweep(ctx context.Context, c client.Client, cron string) error {
	options := client.StartWorkflowOptions{
		ID:                                       orderworkflows.StatusSweepWorkflowID,
		TaskQueue:                                orderworkflows.FulfillmentTaskQueue,
		CronSchedule:                             cron,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	_, err := c.ExecuteWorkflow(ctx, options, orderworkflows.OrderStatusSweepWorkflowName)
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}
