package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/ports"
)

func intPtr(v int) *int { return &v }

func TestApplyAdjustment_DecrementsOnce(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	_, err := repo.Save(ctx, &domain.Product{ID: "P1", Name: "Mug", Price: decimal.NewFromInt(10), Stock: intPtr(5)})
	require.NoError(t, err)

	adj := domain.StockAdjustment{OrderID: "o-1", LineNo: 0, ProductID: "P1", Field: domain.StockFieldStock, Quantity: 2}
	first, err := repo.ApplyAdjustment(ctx, adj)
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.Equal(t, 3, first.Remaining)

	replay, err := repo.ApplyAdjustment(ctx, adj)
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assert.Equal(t, 3, replay.Remaining)

	adj.LineNo = 1
	second, err := repo.ApplyAdjustment(ctx, adj)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Remaining)
}

func TestApplyAdjustment_Rejections(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	_, err := repo.Save(ctx, &domain.Product{ID: "P1", Name: "Mug", Price: decimal.NewFromInt(10), StockQuantity: intPtr(1)})
	require.NoError(t, err)

	_, err = repo.ApplyAdjustment(ctx, domain.StockAdjustment{OrderID: "o-1", ProductID: "P1", Field: domain.StockFieldQuantity, Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = repo.ApplyAdjustment(ctx, domain.StockAdjustment{OrderID: "o-1", ProductID: "P1", Field: domain.StockFieldStock, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)

	_, err = repo.ApplyAdjustment(ctx, domain.StockAdjustment{OrderID: "o-1", ProductID: "nope", Field: domain.StockFieldStock, Quantity: 1})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	p, err := repo.GetByID(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 1, *p.StockQuantity)
}

func TestSave_RejectsNegativeStock(t *testing.T) {
	repo := NewRepository()
	_, err := repo.Save(context.Background(), &domain.Product{ID: "P1", Stock: intPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)
}
