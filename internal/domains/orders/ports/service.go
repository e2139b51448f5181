package ports

import (
	"context"

	"github.com/google/uuid"

	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
)

// Service exposes the order use cases to adapters (inbound/driving port).
type Service interface {
	CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.CreateOrderResult, error)
	GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	SweepStatuses(ctx context.Context) (*ordertypes.SweepResult, error)
	RefreshOrderStatus(ctx context.Context, number string) (*domain.Order, error)
}
