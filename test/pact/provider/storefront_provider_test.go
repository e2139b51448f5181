//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-storefront-api/test/pact"

	storefrontserver "github.com/Apurer/go-gin-storefront-api/go"
	catalogmemory "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	ordersmemory "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/observability"
	ordersworkflows "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application"
	orderdomain "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStorefrontProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateProductsInStock: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedOrder(t, pacttest.ExistingOrder)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	orders  *ordersmemory.Repository
	catalog *catalogmemory.Repository
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	orders := ordersmemory.NewRepository()
	catalog := catalogmemory.NewRepository()
	orderService := ordersobs.New(ordersapp.NewService(orders, catalog,
		ordersworkflows.NewInlineStockAdjustments(catalog, nil),
		ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore())))

	handlers := storefrontserver.ApiHandleFunctions{
		OrderAPI: storefrontserver.NewOrderAPI(orderService),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router = storefrontserver.NewRouterWithGinEngine(router, handlers)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{orders: orders, catalog: catalog, server: server}
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	a.orders.Reset()
	a.catalog.Reset()
	stock := pacttest.ProductStock
	_, err := a.catalog.Save(context.Background(), &catalogdomain.Product{
		ID:    pacttest.ProductID,
		Name:  "Pact Mug",
		Price: decimal.NewFromInt(10),
		Stock: &stock,
	})
	require.NoError(t, err)
}

func (a *contractProviderApp) seedOrder(t testing.TB, number string) {
	t.Helper()
	address := orderdomain.Address{FirstName: "Pact", LastName: "Shopper", Email: "pact.shopper@example.com", Line1: "1 Contract Lane", City: "Bristol", Postcode: "BS1 1AA"}
	items := []orderdomain.LineItem{{ProductID: pacttest.ProductID, Name: "Pact Mug", UnitPrice: decimal.NewFromInt(10), Quantity: 2}}
	order, err := orderdomain.NewOrder(number, nil, address, address, items,
		decimal.NewFromInt(20), decimal.NewFromInt(5), decimal.NewFromInt(25), time.Now().UTC())
	require.NoError(t, err)
	_, err = a.orders.Create(context.Background(), order)
	require.NoError(t, err)
}
