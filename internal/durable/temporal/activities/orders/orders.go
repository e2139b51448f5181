package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	catalogdomain "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/ports"
	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	orderports "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
)

const (
	// ApplyStockAdjustmentActivityName decrements the tracked stock for one order line.
	ApplyStockAdjustmentActivityName = "orders.activities.ApplyStockAdjustment"
	// SweepOrderStatusesActivityName advances every open order by age.
	SweepOrderStatusesActivityName = "orders.activities.SweepOrderStatuses"

	// Application error types that must not be retried.
	ErrTypeInsufficientStock = "InsufficientStock"
	ErrTypeProductNotFound   = "ProductNotFound"
	ErrTypeInvalidAdjustment = "InvalidAdjustment"
)

// AdjustmentOutcome is what one ApplyStockAdjustment run did.
type AdjustmentOutcome struct {
	Applied   bool
	Duplicate bool
	Remaining int
}

// Activities groups activities that operate on orders and the catalogue.
type Activities struct {
	catalog catalogports.Repository
	orders  orderports.Service
}

// NewActivities wires the collaborators into the Temporal activities bundle.
// orders may be nil on workers that only apply stock adjustments.
func NewActivities(catalog catalogports.Repository, orders orderports.Service) *Activities {
	return &Activities{catalog: catalog, orders: orders}
}

// ApplyStockAdjustment applies a single ledger-keyed decrement. Replays of an already
// applied key succeed without touching stock, so Temporal retries are safe.
func (a *Activities) ApplyStockAdjustment(ctx context.Context, adj catalogdomain.StockAdjustment) (*AdjustmentOutcome, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		logger.Error("stock adjustment activity not initialized", "orderNumber", adj.OrderNumber)
		return nil, errors.New("stock adjustment activity not initialized")
	}
	logger.Info("ApplyStockAdjustment activity started",
		"orderNumber", adj.OrderNumber, "lineNo", adj.LineNo, "productId", adj.ProductID, "quantity", adj.Quantity)
	result, err := a.catalog.ApplyAdjustment(ctx, adj)
	if err != nil {
		logger.Error("ApplyStockAdjustment activity failed",
			"orderNumber", adj.OrderNumber, "lineNo", adj.LineNo, "productId", adj.ProductID, "error", err)
		return nil, classifyAdjustmentError(err)
	}
	logger.Info("ApplyStockAdjustment activity completed",
		"orderNumber", adj.OrderNumber, "lineNo", adj.LineNo, "duplicate", result.Duplicate, "remaining", result.Remaining)
	return &AdjustmentOutcome{Applied: result.Applied, Duplicate: result.Duplicate, Remaining: result.Remaining}, nil
}

// SweepOrderStatuses runs one progression sweep through the order service.
func (a *Activities) SweepOrderStatuses(ctx context.Context) (*ordertypes.SweepResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.orders == nil {
		logger.Error("status sweep activity not initialized")
		return nil, errors.New("status sweep activity not initialized")
	}
	logger.Info("SweepOrderStatuses activity started")
	result, err := a.orders.SweepStatuses(ctx)
	if err != nil {
		logger.Error("SweepOrderStatuses activity failed", "error", err)
		return nil, err
	}
	logger.Info("SweepOrderStatuses activity completed",
		"examined", result.Examined, "updated", result.Updated, "failed", result.Failed)
	return result, nil
}

func classifyAdjustmentError(err error) error {
	switch {
	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInsufficientStock, err)
	case errors.Is(err, catalogports.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeProductNotFound, err)
	case errors.Is(err, catalogdomain.ErrInvalidAdjustment):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidAdjustment, err)
	default:
		return err
	}
}
