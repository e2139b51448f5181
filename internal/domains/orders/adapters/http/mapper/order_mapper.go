package mapper

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
)

// CartItem is one line of the checkout payload as the storefront sends it.
type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageURL string          `json:"imageUrl"`
}

// Address is the contact and postal block of the checkout form.
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country,omitempty"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	Items        []CartItem      `json:"items"`
	ShippingInfo Address         `json:"shippingInfo"`
	BillingInfo  Address         `json:"billingInfo"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Total        decimal.Decimal `json:"total"`
}

// CreateOrderResponse identifies the stored order.
type CreateOrderResponse struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"orderNumber"`
	OrderID     string `json:"orderId"`
}

// OrderItem is the stored line snapshot.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url"`
}

// Order is the stored order row as the account pages read it.
type Order struct {
	ID            string      `json:"id"`
	OrderNumber   string      `json:"order_number"`
	UserID        *string     `json:"user_id"`
	CustomerEmail string      `json:"customer_email"`
	ShippingInfo  Address     `json:"shipping_info"`
	BillingInfo   Address     `json:"billing_info"`
	OrderItems    []OrderItem `json:"order_items"`
	Subtotal      float64     `json:"subtotal"`
	ShippingCost  float64     `json:"shipping_cost"`
	Total         float64     `json:"total"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// SweepResponse reports one status sweep.
type SweepResponse struct {
	Success      bool   `json:"success"`
	UpdatedCount int    `json:"updatedCount"`
	Message      string `json:"message"`
}

// ToCreateOrderInput converts a transport payload into the application command.
func ToCreateOrderInput(req CreateOrderRequest, userID *uuid.UUID, idempotencyKey string) ordertypes.CreateOrderInput {
	input := ordertypes.CreateOrderInput{
		Items:          make([]ordertypes.LineItemInput, 0, len(req.Items)),
		ShippingInfo:   toAddressInput(req.ShippingInfo),
		BillingInfo:    toAddressInput(req.BillingInfo),
		Subtotal:       req.Subtotal,
		ShippingCost:   req.ShippingCost,
		Total:          req.Total,
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ordertypes.LineItemInput{
			ProductID: item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return input
}

// FromCreateResult converts the application result to the response body.
func FromCreateResult(result *ordertypes.CreateOrderResult) CreateOrderResponse {
	if result == nil {
		return CreateOrderResponse{}
	}
	return CreateOrderResponse{Success: true, OrderNumber: result.OrderNumber, OrderID: result.OrderID.String()}
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:            order.ID.String(),
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		ShippingInfo:  fromAddress(order.ShippingInfo),
		BillingInfo:   fromAddress(order.BillingInfo),
		OrderItems:    make([]OrderItem, 0, len(order.Items)),
		Subtotal:      order.Subtotal.InexactFloat64(),
		ShippingCost:  order.ShippingCost.InexactFloat64(),
		Total:         order.Total.InexactFloat64(),
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	if order.UserID != nil {
		id := order.UserID.String()
		out.UserID = &id
	}
	for _, item := range order.Items {
		out.OrderItems = append(out.OrderItems, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return out
}

// FromDomainOrders converts a list of domain orders, keeping their order.
func FromDomainOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}

// FromSweepResult converts a sweep outcome to the response body.
func FromSweepResult(result *ordertypes.SweepResult) SweepResponse {
	updated := 0
	if result != nil {
		updated = result.Updated
	}
	message := fmt.Sprintf("Updated %d order(s)", updated)
	if result != nil && result.Examined == 0 {
		message = "No orders need status updates"
	}
	return SweepResponse{Success: true, UpdatedCount: updated, Message: message}
}

func toAddressInput(a Address) ordertypes.AddressInput {
	return ordertypes.AddressInput{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Line1:     a.Address,
		City:      a.City,
		Postcode:  a.Postcode,
		Country:   a.Country,
	}
}

func fromAddress(a domain.Address) Address {
	return Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Address:   a.Line1,
		City:      a.City,
		Postcode:  a.Postcode,
		Country:   a.Country,
	}
}
