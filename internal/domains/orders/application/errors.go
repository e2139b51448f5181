package application

import (
	"errors"
	"fmt"

	catalogdomain "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrProductNotFound means a line item referenced an unknown product.
	ErrProductNotFound = errors.New("product not found")
	// ErrPriceMismatch means a line's unit price differs from the catalogue price.
	ErrPriceMismatch = errors.New("unit price does not match catalogue price")
	// ErrInsufficientStock is shared with the catalogue so adapter errors match too.
	ErrInsufficientStock = catalogdomain.ErrInsufficientStock
)

// InsufficientStockError names the product that could not cover the request.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock available for %s. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyItems) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrNegativeAmount) ||
		errors.Is(err, domain.ErrMissingEmail) ||
		errors.Is(err, domain.ErrTotalsMismatch) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, ErrPriceMismatch) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
