package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	catalogports "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/ports"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/go-gin-storefront-api/internal/durable/temporal/workflows/orders"
)

var (
	_ ports.StockAdjustmentDispatcher = (*TemporalStockAdjustments)(nil)
	_ ports.StockAdjustmentDispatcher = (*InlineStockAdjustments)(nil)
)

// workflowStarter is the slice of client.Client the dispatcher needs.
type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalStockAdjustments hands each batch to a durable workflow and returns as soon
// as the workflow is accepted.
type TemporalStockAdjustments struct {
	client    workflowStarter
	taskQueue string
}

// NewTemporalStockAdjustments wires a Temporal client into the dispatcher.
func NewTemporalStockAdjustments(c client.Client) *TemporalStockAdjustments {
	return &TemporalStockAdjustments{client: c, taskQueue: orderworkflows.FulfillmentTaskQueue}
}

// Dispatch starts the StockAdjustmentWorkflow for the batch. A workflow already started
// for the same order is treated as queued.
func (d *TemporalStockAdjustments) Dispatch(ctx context.Context, batch ports.StockAdjustmentBatch) (ports.AdjustmentReport, error) {
	if d == nil || d.client == nil {
		return ports.AdjustmentReport{}, errors.New("temporal stock adjustments not configured")
	}
	options := client.StartWorkflowOptions{
		ID:                                       StockAdjustmentWorkflowID(batch.OrderNumber),
		TaskQueue:                                d.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	_, err := d.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.StockAdjustmentWorkflowName,
		orderworkflows.StockAdjustmentWorkflowInput{Batch: batch, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return ports.AdjustmentReport{Queued: true}, nil
		}
		return ports.AdjustmentReport{}, err
	}
	return ports.AdjustmentReport{Queued: true}, nil
}

// StockAdjustmentWorkflowID derives the deterministic workflow id for an order.
func StockAdjustmentWorkflowID(orderNumber string) string {
	return fmt.Sprintf("stock-adjustment-%s", orderNumber)
}

// InlineStockAdjustments applies every adjustment synchronously and best-effort, useful
// for tests or when Temporal is unavailable.
type InlineStockAdjustments struct {
	catalog catalogports.Repository
	logger  *slog.Logger
}

// NewInlineStockAdjustments wraps the catalogue repository for synchronous execution.
func NewInlineStockAdjustments(catalog catalogports.Repository, logger *slog.Logger) *InlineStockAdjustments {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &InlineStockAdjustments{catalog: catalog, logger: logger}
}

// Dispatch applies each adjustment independently. A failing line is logged and skipped.
func (d *InlineStockAdjustments) Dispatch(ctx context.Context, batch ports.StockAdjustmentBatch) (ports.AdjustmentReport, error) {
	if d == nil || d.catalog == nil {
		return ports.AdjustmentReport{}, errors.New("inline stock adjustments not configured")
	}
	var report ports.AdjustmentReport
	for _, adj := range batch.Adjustments {
		result, err := d.catalog.ApplyAdjustment(ctx, adj)
		if err != nil {
			report.Failed++
			d.logger.ErrorContext(ctx, "failed to update product stock",
				slog.String("order.number", batch.OrderNumber),
				slog.Int("line.no", adj.LineNo),
				slog.String("product.id", adj.ProductID),
				slog.String("error", err.Error()))
			continue
		}
		if result.Applied || result.Duplicate {
			report.Applied++
		}
	}
	return report, nil
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return spanCtx.TraceID().String()
}
