package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
)

var (
	ErrNotFound             = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	// ErrStatusConflict means the stored status no longer matched the expected one.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// Repository persists orders. Orders are never deleted.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	// ListByUser returns the user's orders newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error)
	// TransitionStatus sets the status only if it still equals from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, at time.Time) error
}
