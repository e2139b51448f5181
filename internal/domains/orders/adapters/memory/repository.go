package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*domain.Order
	byNumber map[string]uuid.UUID
}

func NewRepository() *Repository {
	return &Repository{
		orders:   map[uuid.UUID]*domain.Order{},
		byNumber: map[string]uuid.UUID{},
	}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byNumber[clone.OrderNumber]; taken {
		return nil, ports.ErrDuplicateOrderNumber
	}
	if _, taken := r.orders[clone.ID]; taken {
		return nil, errors.New("order id already exists")
	}
	r.orders[clone.ID] = clone
	r.byNumber[clone.OrderNumber] = clone.ID
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNumber[number]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.orders[id].Clone(), nil
}

func (r *Repository) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0)
	for _, order := range r.orders {
		if order.UserID != nil && *order.UserID == userID {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *Repository) ListByStatus(_ context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[domain.Status]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	list := make([]*domain.Order, 0)
	for _, order := range r.orders {
		if _, ok := set[order.Status]; ok {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *Repository) TransitionStatus(_ context.Context, id uuid.UUID, from, to domain.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	if order.Status != from {
		return ports.ErrStatusConflict
	}
	order.Status = to
	order.UpdatedAt = at
	return nil
}

// Reset drops every stored order.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = map[uuid.UUID]*domain.Order{}
	r.byNumber = map[string]uuid.UUID{}
}
