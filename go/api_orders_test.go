package storefrontserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	orderhttpmapper "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/http/mapper"
	ordersmemory "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/memory"
	ordersworkflows "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
	apierrors "github.com/Apurer/go-gin-storefront-api/internal/shared/errors"
)

type testServer struct {
	router  *gin.Engine
	orders  *ordersmemory.Repository
	catalog *catalogmemory.Repository
	now     time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	orders := ordersmemory.NewRepository()
	catalog := catalogmemory.NewRepository()
	stock := 5
	_, err := catalog.Save(context.Background(), &catalogdomain.Product{ID: "P1", Name: "Mug", Price: decimal.NewFromInt(10), Stock: &stock})
	require.NoError(t, err)

	svc := ordersapp.NewService(orders, catalog, ordersworkflows.NewInlineStockAdjustments(catalog, nil),
		ordersapp.WithClock(func() time.Time { return now }),
		ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore()))
	router := NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{OrderAPI: NewOrderAPI(svc)})
	return &testServer{router: router, orders: orders, catalog: catalog, now: now}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(raw))
	} else if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func checkoutPayload(qty int) map[string]any {
	address := map[string]any{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "07700900000",
		"address": "1 Analytical Row", "city": "London", "postcode": "N1 1AA", "country": "United Kingdom",
	}
	subtotal := 10 * qty
	return map[string]any{
		"items": []map[string]any{
			{"id": "P1", "name": "Mug", "price": 10, "quantity": qty, "imageUrl": "/img/mug.png"},
		},
		"shippingInfo": address,
		"billingInfo":  address,
		"subtotal":     subtotal,
		"shippingCost": json.Number("5.99"),
		"total":        json.Number(decimal.NewFromInt(int64(subtotal)).Add(decimal.RequireFromString("5.99")).String()),
	}
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestCreateOrder_Created(t *testing.T) {
	s := newTestServer(t)
	user := uuid.New()

	rec := s.do(t, http.MethodPost, "/api/orders", checkoutPayload(2), map[string]string{HeaderUserID: user.String()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp orderhttpmapper.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, domain.IsOrderNumber(resp.OrderNumber))

	stored, err := s.orders.GetByNumber(context.Background(), resp.OrderNumber)
	require.NoError(t, err)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, user, *stored.UserID)
	assert.Equal(t, resp.OrderID, stored.ID.String())
}

func TestCreateOrder_AcceptsBrowserFloatTotals(t *testing.T) {
	s := newTestServer(t)
	stock := 5
	_, err := s.catalog.Save(context.Background(), &catalogdomain.Product{ID: "P2", Name: "Teapot", Price: decimal.RequireFromString("19.99"), Stock: &stock})
	require.NoError(t, err)

	body := `{
		"items": [{"id": "P2", "name": "Teapot", "price": 19.99, "quantity": 1, "imageUrl": "/img/teapot.png"}],
		"shippingInfo": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "address": "1 Analytical Row", "city": "London", "postcode": "N1 1AA"},
		"billingInfo": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "address": "1 Analytical Row", "city": "London", "postcode": "N1 1AA"},
		"subtotal": 19.99,
		"shippingCost": 5.99,
		"total": 25.979999999999997
	}`
	rec := s.do(t, http.MethodPost, "/api/orders", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp orderhttpmapper.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	stored, err := s.orders.GetByNumber(context.Background(), resp.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "25.98", stored.Total.String())
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/orders", checkoutPayload(10), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decodeProblem(t, rec)
	assert.Equal(t, "Insufficient stock", problem.Title)
	assert.Equal(t, "not enough stock available for Mug. Available: 5, Requested: 10", problem.Detail)
	assert.EqualValues(t, 5, problem.Extensions["available"])
	assert.EqualValues(t, 10, problem.Extensions["requested"])
	assert.Equal(t, "P1", problem.Extensions["productId"])
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	s := newTestServer(t)
	payload := checkoutPayload(1)
	payload["items"].([]map[string]any)[0]["id"] = "missing"

	rec := s.do(t, http.MethodPost, "/api/orders", payload, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Product not found", decodeProblem(t, rec).Title)
}

func TestCreateOrder_RejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/orders", "{not json", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid order payload", decodeProblem(t, rec).Title)

	rec = s.do(t, http.MethodPost, "/api/orders", checkoutPayload(1), map[string]string{HeaderUserID: "not-a-uuid"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := checkoutPayload(1)
	payload["total"] = 1
	rec = s.do(t, http.MethodPost, "/api/orders", payload, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid order", decodeProblem(t, rec).Title)
}

func TestCreateOrder_IdempotentReplay(t *testing.T) {
	s := newTestServer(t)
	headers := map[string]string{HeaderIdempotencyKey: "checkout-1"}

	first := s.do(t, http.MethodPost, "/api/orders", checkoutPayload(1), headers)
	require.Equal(t, http.StatusCreated, first.Code)
	replay := s.do(t, http.MethodPost, "/api/orders", checkoutPayload(1), headers)
	require.Equal(t, http.StatusOK, replay.Code)
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	conflict := s.do(t, http.MethodPost, "/api/orders", checkoutPayload(2), headers)
	require.Equal(t, http.StatusConflict, conflict.Code)
}

func TestGetOrderByNumber(t *testing.T) {
	s := newTestServer(t)
	created := s.do(t, http.MethodPost, "/api/orders", checkoutPayload(1), nil)
	require.Equal(t, http.StatusCreated, created.Code)
	var resp orderhttpmapper.CreateOrderResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &resp))

	rec := s.do(t, http.MethodGet, "/api/orders/"+resp.OrderNumber, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, resp.OrderNumber, body["order_number"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "ada@example.com", body["customer_email"])
	assert.Nil(t, body["user_id"])
	assert.InDelta(t, 15.99, body["total"], 0.0001)
	items := body["order_items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "P1", items[0].(map[string]any)["product_id"])
	assert.Equal(t, "1 Analytical Row", body["shipping_info"].(map[string]any)["address"])

	missing := s.do(t, http.MethodGet, "/api/orders/ORD-0-missing", nil, nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "Order not found", decodeProblem(t, missing).Title)
}

func (s *testServer) seed(t *testing.T, status domain.Status, age time.Duration, user *uuid.UUID) *domain.Order {
	t.Helper()
	created := s.now.Add(-age)
	addr := domain.Address{Email: "ada@example.com"}
	items := []domain.LineItem{{ProductID: "P1", Name: "Mug", UnitPrice: decimal.NewFromInt(10), Quantity: 1}}
	order, err := domain.NewOrder(domain.NewOrderNumber(created), user, addr, addr, items,
		decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(10), created)
	require.NoError(t, err)
	order.Status = status
	saved, err := s.orders.Create(context.Background(), order)
	require.NoError(t, err)
	return saved
}

func TestUpdateOrderStatuses(t *testing.T) {
	s := newTestServer(t)

	empty := s.do(t, http.MethodPost, "/api/orders/update-status", nil, nil)
	require.Equal(t, http.StatusOK, empty.Code)
	assert.JSONEq(t, `{"success":true,"updatedCount":0,"message":"No orders need status updates"}`, empty.Body.String())

	s.seed(t, domain.StatusPending, 25*time.Hour, nil)
	s.seed(t, domain.StatusShipped, 73*time.Hour, nil)
	s.seed(t, domain.StatusPending, time.Hour, nil)

	rec := s.do(t, http.MethodGet, "/api/orders/update-status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"updatedCount":2,"message":"Updated 2 order(s)"}`, rec.Body.String())
}

func TestRefreshOrderStatus(t *testing.T) {
	s := newTestServer(t)
	order := s.seed(t, domain.StatusPending, 30*time.Hour, nil)

	rec := s.do(t, http.MethodPatch, "/api/orders/"+order.OrderNumber+"/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "shipped", body["status"])
}

func TestListUserOrders(t *testing.T) {
	s := newTestServer(t)
	user := uuid.New()
	older := s.seed(t, domain.StatusDelivered, 200*time.Hour, &user)
	newer := s.seed(t, domain.StatusPending, time.Hour, &user)

	rec := s.do(t, http.MethodGet, "/api/users/"+user.String()+"/orders", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, newer.OrderNumber, body[0]["order_number"])
	assert.Equal(t, older.OrderNumber, body[1]["order_number"])

	bad := s.do(t, http.MethodGet, "/api/users/42/orders", nil, nil)
	require.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
