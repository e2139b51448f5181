package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderports "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-storefront-api/internal/durable/temporal/activities/orders"
)

// StockAdjustmentReport counts the outcome of each line in a batch.
type StockAdjustmentReport struct {
	Applied    int
	Duplicates int
	Failed     int
}

// RunStockAdjustmentSequence applies every adjustment of the batch in line order. A line
// that still fails after its retries is logged and skipped; the order it belongs to is
// already committed.
func RunStockAdjustmentSequence(ctx workflow.Context, batch orderports.StockAdjustmentBatch) (*StockAdjustmentReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("stock adjustment sequence started", "orderNumber", batch.OrderNumber, "lines", len(batch.Adjustments))
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
			NonRetryableErrorTypes: []string{
				orderactivities.ErrTypeInsufficientStock,
				orderactivities.ErrTypeProductNotFound,
				orderactivities.ErrTypeInvalidAdjustment,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	report := &StockAdjustmentReport{}
	for _, adj := range batch.Adjustments {
		var outcome orderactivities.AdjustmentOutcome
		err := workflow.ExecuteActivity(ctx, orderactivities.ApplyStockAdjustmentActivityName, adj).Get(ctx, &outcome)
		if err != nil {
			report.Failed++
			logger.Error("stock adjustment gave up",
				"orderNumber", batch.OrderNumber, "lineNo", adj.LineNo, "productId", adj.ProductID, "error", err)
			continue
		}
		if outcome.Duplicate {
			report.Duplicates++
			continue
		}
		report.Applied++
	}
	logger.Info("stock adjustment sequence completed", "orderNumber", batch.OrderNumber,
		"applied", report.Applied, "duplicates", report.Duplicates, "failed", report.Failed)
	return report, nil
}
