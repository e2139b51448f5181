package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
)

type normalizedCreateOrder struct {
	UserID       string            `json:"userId,omitempty"`
	Items        []normalizedItem  `json:"items"`
	Shipping     normalizedAddress `json:"shipping"`
	Billing      normalizedAddress `json:"billing"`
	Subtotal     string            `json:"subtotal"`
	ShippingCost string            `json:"shippingCost"`
	Total        string            `json:"total"`
}

type normalizedItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"imageUrl"`
}

type normalizedAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Line1     string `json:"line1"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

// FingerprintCreateOrder builds a deterministic hash of the checkout payload (excluding
// the idempotency key). Money is rendered with two decimals so 10 and 10.00 match.
func FingerprintCreateOrder(input ordertypes.CreateOrderInput) (string, error) {
	payload, err := json.Marshal(normalizeCreateOrder(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCreateOrder(input ordertypes.CreateOrderInput) normalizedCreateOrder {
	normalized := normalizedCreateOrder{
		Items:        make([]normalizedItem, 0, len(input.Items)),
		Shipping:     normalizeAddress(input.ShippingInfo),
		Billing:      normalizeAddress(input.BillingInfo),
		Subtotal:     input.Subtotal.StringFixed(2),
		ShippingCost: input.ShippingCost.StringFixed(2),
		Total:        input.Total.StringFixed(2),
	}
	if input.UserID != nil {
		normalized.UserID = input.UserID.String()
	}
	for _, item := range input.Items {
		normalized.Items = append(normalized.Items, normalizedItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return normalized
}

func normalizeAddress(addr ordertypes.AddressInput) normalizedAddress {
	return normalizedAddress{
		FirstName: strings.TrimSpace(addr.FirstName),
		LastName:  strings.TrimSpace(addr.LastName),
		Email:     strings.ToLower(strings.TrimSpace(addr.Email)),
		Phone:     strings.TrimSpace(addr.Phone),
		Line1:     strings.TrimSpace(addr.Line1),
		City:      strings.TrimSpace(addr.City),
		Postcode:  strings.TrimSpace(addr.Postcode),
		Country:   strings.TrimSpace(addr.Country),
	}
}
