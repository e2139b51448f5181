package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyItems        = errors.New("order must contain at least one item")
	ErrInvalidProductID  = errors.New("product id is required")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrNegativeAmount    = errors.New("monetary amounts must not be negative")
	ErrMissingEmail      = errors.New("customer email is required")
	ErrTotalsMismatch    = errors.New("order totals do not match line items")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition is not allowed")
)

// Address is the contact and postal snapshot captured at checkout.
type Address struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Line1     string
	City      string
	Postcode  string
	Country   string
}

// LineItem is an immutable copy of the product as it was when the order was placed.
type LineItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  string
}

// LineTotal returns unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order models the storefront purchase aggregate.
type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	UserID        *uuid.UUID
	CustomerEmail string
	ShippingInfo  Address
	BillingInfo   Address
	Items         []LineItem
	Subtotal      decimal.Decimal
	ShippingCost  decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder builds a pending order from a checked item snapshot. Totals are taken as
// supplied and must already agree with the items.
func NewOrder(number string, userID *uuid.UUID, shipping, billing Address, items []LineItem,
	subtotal, shippingCost, total decimal.Decimal, now time.Time) (*Order, error) {
	order := &Order{
		ID:            uuid.New(),
		OrderNumber:   number,
		UserID:        userID,
		CustomerEmail: strings.TrimSpace(shipping.Email),
		ShippingInfo:  shipping,
		BillingInfo:   billing,
		Items:         append([]LineItem(nil), items...),
		Subtotal:      subtotal,
		ShippingCost:  shippingCost,
		Total:         total,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyItems
	}
	for _, item := range o.Items {
		if err := ValidateLineItem(item); err != nil {
			return err
		}
	}
	if o.CustomerEmail == "" {
		return ErrMissingEmail
	}
	if o.Subtotal.IsNegative() || o.ShippingCost.IsNegative() || o.Total.IsNegative() {
		return ErrNegativeAmount
	}
	if err := VerifyTotals(o.Items, o.Subtotal, o.ShippingCost, o.Total); err != nil {
		return err
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ValidateLineItem checks a single requested line.
func ValidateLineItem(item LineItem) error {
	if strings.TrimSpace(item.ProductID) == "" {
		return ErrInvalidProductID
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.UnitPrice.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// MoneyPlaces is the precision amounts are stored and compared at.
const MoneyPlaces = 2

// RoundMoney rounds an amount to whole cents. Browser clients sum prices as binary
// floats, so 19.99 + 5.99 arrives as 25.979999999999997.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// VerifyTotals recomputes the subtotal from the items and checks
// total == subtotal + shippingCost, all at cent precision.
func VerifyTotals(items []LineItem, subtotal, shippingCost, total decimal.Decimal) error {
	computed := decimal.Zero
	for _, item := range items {
		computed = computed.Add(item.LineTotal())
	}
	subtotal = RoundMoney(subtotal)
	if !RoundMoney(computed).Equal(subtotal) {
		return ErrTotalsMismatch
	}
	if !subtotal.Add(RoundMoney(shippingCost)).Equal(RoundMoney(total)) {
		return ErrTotalsMismatch
	}
	return nil
}

// Age reports how long ago the order was created.
func (o *Order) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// Transition moves the order to next when the state machine allows it.
func (o *Order) Transition(next Status, at time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	o.Status = next
	o.UpdatedAt = at
	return nil
}

// Clone returns a deep copy safe to hand across adapter boundaries.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	if o.UserID != nil {
		id := *o.UserID
		clone.UserID = &id
	}
	return &clone
}
