package orders

import (
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	orderports "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront-api/internal/durable/temporal/sequences"
)

const (
	// StockAdjustmentWorkflowName is the public identifier for registering the workflow.
	StockAdjustmentWorkflowName = "orders.workflows.StockAdjustment"
	// OrderStatusSweepWorkflowName is the public identifier for the progression sweep.
	OrderStatusSweepWorkflowName = "orders.workflows.StatusSweep"
	// FulfillmentTaskQueue is the queue consumed by the worker processing order workflows.
	FulfillmentTaskQueue = "ORDER_FULFILLMENT"
	// StatusSweepWorkflowID is the fixed id of the cron-scheduled sweep.
	StatusSweepWorkflowID = "order-status-sweep"
)

// StockAdjustmentWorkflowInput carries the decrements owed by one committed order.
type StockAdjustmentWorkflowInput struct {
	Batch   orderports.StockAdjustmentBatch
	TraceID string
}

// StockAdjustmentWorkflow applies the post-commit stock decrements of an order.
func StockAdjustmentWorkflow(ctx workflow.Context, input StockAdjustmentWorkflowInput) (*sequences.StockAdjustmentReport, error) {
	logger := workflow.GetLogger(ctx)
	orderNumber := input.Batch.OrderNumber
	logger.Info("StockAdjustmentWorkflow started", withTraceID(input.TraceID, "orderNumber", orderNumber)...)
	report, err := sequences.RunStockAdjustmentSequence(ctx, input.Batch)
	if err != nil {
		logger.Error("StockAdjustmentWorkflow failed", withTraceID(input.TraceID, "orderNumber", orderNumber, "error", err)...)
		return nil, err
	}
	logger.Info("StockAdjustmentWorkflow completed",
		withTraceID(input.TraceID, "orderNumber", orderNumber, "applied", report.Applied, "failed", report.Failed)...)
	return report, nil
}

// OrderStatusSweepWorkflow advances open orders by age. The worker may start it on a cron
// schedule.
func OrderStatusSweepWorkflow(ctx workflow.Context) (*ordertypes.SweepResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderStatusSweepWorkflow started")
	result, err := sequences.RunStatusSweepSequence(ctx)
	if err != nil {
		logger.Error("OrderStatusSweepWorkflow failed", "error", err)
		return nil, err
	}
	logger.Info("OrderStatusSweepWorkflow completed", "updated", result.Updated)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
