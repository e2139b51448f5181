package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockField names the column a product tracks its inventory under. Two names exist
// because the catalogue schema was migrated in place.
type StockField string

const (
	StockFieldNone     StockField = ""
	StockFieldStock    StockField = "stock"
	StockFieldQuantity StockField = "stock_quantity"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAdjustment = errors.New("stock adjustment is invalid")
	ErrNegativeStock     = errors.New("stock must not be negative")
)

// Product is the subset of the external catalogue entry the order flows rely on.
type Product struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	ImageURL      string
	Stock         *int
	StockQuantity *int
}

// TrackedStock resolves which field carries inventory: stock first, then
// stock_quantity. ok is false when the product is untracked (unlimited).
func (p *Product) TrackedStock() (field StockField, level int, ok bool) {
	switch {
	case p.Stock != nil:
		return StockFieldStock, *p.Stock, true
	case p.StockQuantity != nil:
		return StockFieldQuantity, *p.StockQuantity, true
	default:
		return StockFieldNone, 0, false
	}
}

// Validate rejects negative tracked stock.
func (p *Product) Validate() error {
	if p.Stock != nil && *p.Stock < 0 {
		return ErrNegativeStock
	}
	if p.StockQuantity != nil && *p.StockQuantity < 0 {
		return ErrNegativeStock
	}
	return nil
}

// Decrement lowers the tracked field by qty, refusing to go below zero.
func (p *Product) Decrement(field StockField, qty int) error {
	var target *int
	switch field {
	case StockFieldStock:
		target = p.Stock
	case StockFieldQuantity:
		target = p.StockQuantity
	}
	if target == nil {
		return fmt.Errorf("%w: product %s does not track %q", ErrInvalidAdjustment, p.ID, field)
	}
	if *target < qty {
		return ErrInsufficientStock
	}
	*target -= qty
	return nil
}

// Clone returns a copy that does not share stock pointers.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Stock != nil {
		v := *p.Stock
		clone.Stock = &v
	}
	if p.StockQuantity != nil {
		v := *p.StockQuantity
		clone.StockQuantity = &v
	}
	return &clone
}

// StockAdjustment is one post-commit decrement owed by an order line. OrderID and
// LineNo identify it so replays can be detected.
type StockAdjustment struct {
	OrderID     string
	OrderNumber string
	LineNo      int
	ProductID   string
	Field       StockField
	Quantity    int
	RequestedAt time.Time
}

// Key is the idempotency key of the adjustment.
func (a StockAdjustment) Key() string {
	return fmt.Sprintf("%s#%d", a.OrderID, a.LineNo)
}

func (a StockAdjustment) Validate() error {
	if a.OrderID == "" || a.ProductID == "" || a.Quantity < 1 {
		return ErrInvalidAdjustment
	}
	if a.Field != StockFieldStock && a.Field != StockFieldQuantity {
		return ErrInvalidAdjustment
	}
	return nil
}
