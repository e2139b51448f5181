package ports

import (
	"context"

	catalogdomain "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
)

// StockAdjustmentBatch carries the decrements owed by one committed order.
type StockAdjustmentBatch struct {
	OrderID     string
	OrderNumber string
	Adjustments []catalogdomain.StockAdjustment
}

// AdjustmentReport summarises what a dispatcher did synchronously. Durable dispatchers
// only report Queued.
type AdjustmentReport struct {
	Applied int
	Failed  int
	Queued  bool
}

// StockAdjustmentDispatcher applies post-commit stock decrements. Implementations must
// never fail the order: errors are returned only when the batch could not be handed off
// at all, and callers log them.
type StockAdjustmentDispatcher interface {
	Dispatch(ctx context.Context, batch StockAdjustmentBatch) (AdjustmentReport, error)
}
