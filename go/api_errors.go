package storefrontserver

import (
	"errors"

	ordersapp "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-storefront-api/internal/shared/errors"
)

func newOrderResponder() *apierrors.ChainedResponder {
	return apierrors.NewChainedResponder("", mapOrderError)
}

// mapOrderError translates order use case errors into problem details. The title carries
// the short error and the detail the human-readable message.
func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	var stockErr *ordersapp.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return apierrors.ErrOutOfStock.
			WithDetail(stockErr.Error()).
			WithExtension("productId", stockErr.ProductID).
			WithExtension("available", stockErr.Available).
			WithExtension("requested", stockErr.Requested), true
	case errors.Is(err, ordersapp.ErrInsufficientStock):
		return apierrors.ErrOutOfStock.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrProductNotFound):
		return apierrors.ErrUnprocessable.WithTitle("Product not found").WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithTitle("Invalid order").WithDetail(err.Error()), true
	case errors.Is(err, orderports.ErrNotFound):
		return apierrors.ErrNotFound.WithTitle("Order not found"), true
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail("Idempotency-Key was already used with a different payload"), true
	case errors.Is(err, orderports.ErrIdempotencyInProgress):
		return apierrors.ErrConflict.WithDetail("A request with this Idempotency-Key is still being processed"), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}
