//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "storefront-api"
	ConsumerName = "storefront-web"

	StateProductsInStock = "product P1 has 5 in stock"
	StateOrderExists     = "order ORD-1700000000000-pact001 exists"
	StateOrderMissing    = "no order ORD-0-missing"
)

const (
	ProductID       = "P1"
	ProductStock    = 5
	ExistingOrder   = "ORD-1700000000000-pact001"
	MissingOrder    = "ORD-0-missing"
	OrderNumberExpr = `^ORD-\d+-[0-9a-z]{7}$`
	UUIDExpr        = `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCheckout is the checkout body the storefront submits for quantity units of P1.
func ExampleCheckout(quantity int) map[string]any {
	address := map[string]any{
		"firstName": "Pact",
		"lastName":  "Shopper",
		"email":     "pact.shopper@example.com",
		"phone":     "+441234567890",
		"address":   "1 Contract Lane",
		"city":      "Bristol",
		"postcode":  "BS1 1AA",
		"country":   "United Kingdom",
	}
	subtotal := 10 * quantity
	return map[string]any{
		"items": []map[string]any{
			{"id": ProductID, "name": "Pact Mug", "price": 10, "quantity": quantity, "imageUrl": "/images/mug.png"},
		},
		"shippingInfo": address,
		"billingInfo":  address,
		"subtotal":     subtotal,
		"shippingCost": 5,
		"total":        subtotal + 5,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
