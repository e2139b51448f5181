package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
)

var ErrNotFound = errors.New("product not found")

// AdjustmentResult tells the caller whether the adjustment changed stock or had
// already been applied earlier.
type AdjustmentResult struct {
	Applied   bool
	Duplicate bool
	Remaining int
}

// Repository reads catalogue products and applies stock adjustments.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// ApplyAdjustment decrements the tracked field only when enough stock remains and
	// records the adjustment key; replaying a recorded key changes nothing.
	// Returns domain.ErrInsufficientStock when the conditional decrement matched no row.
	ApplyAdjustment(ctx context.Context, adj domain.StockAdjustment) (AdjustmentResult, error)
}
