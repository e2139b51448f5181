package storefrontserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	orderhttpmapper "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/http/mapper"
	orderports "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-storefront-api/internal/shared/errors"
)

const (
	// HeaderUserID carries the authenticated shopper, absent for guest checkout.
	HeaderUserID = "X-User-ID"
	// HeaderIdempotencyKey lets clients retry checkout submissions safely.
	HeaderIdempotencyKey = "Idempotency-Key"
)

// OrderAPI wires HTTP transport with the orders bounded context service.
type OrderAPI struct {
	service   orderports.Service
	responder *apierrors.ChainedResponder
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service orderports.Service) OrderAPI {
	return OrderAPI{service: service, responder: newOrderResponder()}
}

// Post /api/orders
// Create an order from the checkout payload
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.Respond(c, apierrors.ErrBadRequest.WithTitle("Invalid order payload").WithDetail(err.Error()))
		return
	}
	userID, err := parseUserHeader(c)
	if err != nil {
		api.responder.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	input := orderhttpmapper.ToCreateOrderInput(payload, userID, strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)))
	result, err := api.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		api.responder.RespondErrorWithFallback(c, err, apierrors.ErrInternal.WithTitle("Failed to create order"))
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, orderhttpmapper.FromCreateResult(result))
}

// Get /api/orders/:orderNumber
// Fetch an order by its order number
func (api *OrderAPI) GetOrderByNumber(c *gin.Context) {
	number, ok := api.bindOrderNumber(c)
	if !ok {
		return
	}
	order, err := api.service.GetOrderByNumber(c.Request.Context(), number)
	if err != nil {
		api.responder.RespondErrorWithFallback(c, err, apierrors.ErrInternal.WithTitle("Failed to fetch order"))
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /api/orders/update-status
// Advance every open order whose age crossed a threshold
func (api *OrderAPI) UpdateOrderStatuses(c *gin.Context) {
	result, err := api.service.SweepStatuses(c.Request.Context())
	if err != nil {
		api.responder.RespondErrorWithFallback(c, err, apierrors.ErrInternal.WithTitle("Failed to update order statuses"))
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromSweepResult(result))
}

// Patch /api/orders/:orderNumber/status
// Apply the progression rule to one order
func (api *OrderAPI) RefreshOrderStatus(c *gin.Context) {
	number, ok := api.bindOrderNumber(c)
	if !ok {
		return
	}
	order, err := api.service.RefreshOrderStatus(c.Request.Context(), number)
	if err != nil {
		api.responder.RespondErrorWithFallback(c, err, apierrors.ErrInternal.WithTitle("Failed to update order status"))
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Get /api/users/:userId/orders
// List a user's orders, newest first
func (api *OrderAPI) ListUserOrders(c *gin.Context) {
	var raw string
	if err := runtime.BindStyledParameterWithOptions("simple", "userId", c.Param("userId"), &raw, pathParamOptions); err != nil {
		api.responder.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		api.responder.Respond(c, apierrors.ErrBadRequest.WithDetail("userId must be a UUID"))
		return
	}
	orders, err := api.service.ListOrdersForUser(c.Request.Context(), userID)
	if err != nil {
		api.responder.RespondErrorWithFallback(c, err, apierrors.ErrInternal.WithTitle("Failed to fetch orders"))
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

var pathParamOptions = runtime.BindStyledParameterOptions{
	ParamLocation: runtime.ParamLocationPath,
	Explode:       false,
	Required:      true,
}

func (api *OrderAPI) bindOrderNumber(c *gin.Context) (string, bool) {
	var number string
	if err := runtime.BindStyledParameterWithOptions("simple", "orderNumber", c.Param("orderNumber"), &number, pathParamOptions); err != nil {
		api.responder.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return "", false
	}
	return number, true
}

func parseUserHeader(c *gin.Context) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
