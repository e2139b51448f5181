package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
)

// LineItemInput is one requested cart line.
type LineItemInput struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  string
}

// AddressInput carries contact and postal data; the caller validates it.
type AddressInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Line1     string
	City      string
	Postcode  string
	Country   string
}

// CreateOrderInput is the checkout payload. UserID is nil for guest checkout.
type CreateOrderInput struct {
	Items          []LineItemInput
	ShippingInfo   AddressInput
	BillingInfo    AddressInput
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	Total          decimal.Decimal
	UserID         *uuid.UUID
	IdempotencyKey string
}

// StockAdjustmentSummary reports the post-commit stock work for an order.
type StockAdjustmentSummary struct {
	Requested int
	Applied   int
	Failed    int
	Queued    bool
}

// CreateOrderResult identifies the stored order.
type CreateOrderResult struct {
	OrderID     uuid.UUID
	OrderNumber string
	// Replayed is set when an idempotency key matched an earlier request.
	Replayed bool
	Stock    StockAdjustmentSummary
}

// StatusTransition records one change made by a sweep.
type StatusTransition struct {
	OrderID     uuid.UUID
	OrderNumber string
	From        domain.Status
	To          domain.Status
}

// SweepResult is the outcome of one progression sweep.
type SweepResult struct {
	Examined    int
	Updated     int
	Failed      int
	Transitions []StatusTransition
}
