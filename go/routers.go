package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc is the default handler for routes without an implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

type ApiHandleFunctions struct {
	// Routes for the OrderAPI part of the API
	OrderAPI OrderAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"Healthz",
			http.MethodGet,
			"/healthz",
			Healthz,
		},
		{
			"CreateOrder",
			http.MethodPost,
			"/api/orders",
			handleFunctions.OrderAPI.CreateOrder,
		},
		{
			"UpdateOrderStatuses",
			http.MethodPost,
			"/api/orders/update-status",
			handleFunctions.OrderAPI.UpdateOrderStatuses,
		},
		{
			"UpdateOrderStatusesGet",
			http.MethodGet,
			"/api/orders/update-status",
			handleFunctions.OrderAPI.UpdateOrderStatuses,
		},
		{
			"GetOrderByNumber",
			http.MethodGet,
			"/api/orders/:orderNumber",
			handleFunctions.OrderAPI.GetOrderByNumber,
		},
		{
			"RefreshOrderStatus",
			http.MethodPatch,
			"/api/orders/:orderNumber/status",
			handleFunctions.OrderAPI.RefreshOrderStatus,
		},
		{
			"ListUserOrders",
			http.MethodGet,
			"/api/users/:userId/orders",
			handleFunctions.OrderAPI.ListUserOrders,
		},
	}
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
