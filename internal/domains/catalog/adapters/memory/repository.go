package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory catalogue used for development and tests.
type Repository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	applied  map[string]struct{}
}

func NewRepository() *Repository {
	return &Repository{
		products: map[string]*domain.Product{},
		applied:  map[string]struct{}{},
	}
}

func (r *Repository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if product.ID == "" {
		return nil, errors.New("product id is required")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product.Clone()
	return product.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *Repository) ApplyAdjustment(_ context.Context, adj domain.StockAdjustment) (ports.AdjustmentResult, error) {
	if err := adj.Validate(); err != nil {
		return ports.AdjustmentResult{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[adj.ProductID]
	if !ok {
		return ports.AdjustmentResult{}, ports.ErrNotFound
	}
	if _, done := r.applied[adj.Key()]; done {
		_, level, _ := product.TrackedStock()
		return ports.AdjustmentResult{Duplicate: true, Remaining: level}, nil
	}
	if err := product.Decrement(adj.Field, adj.Quantity); err != nil {
		return ports.AdjustmentResult{}, err
	}
	r.applied[adj.Key()] = struct{}{}
	_, level, _ := product.TrackedStock()
	return ports.AdjustmentResult{Applied: true, Remaining: level}, nil
}

// Reset drops all products and recorded adjustments.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = map[string]*domain.Product{}
	r.applied = map[string]struct{}{}
}
