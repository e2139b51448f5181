package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository reads products and applies stock adjustments in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed catalogue. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type productRecord struct {
	ID            string          `gorm:"primaryKey;column:id;size:64"`
	Name          string          `gorm:"column:name"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	ImageURL      string          `gorm:"column:image_url"`
	Stock         *int            `gorm:"column:stock"`
	StockQuantity *int            `gorm:"column:stock_quantity"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type adjustmentRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:128"`
	OrderID     string    `gorm:"column:order_id;size:64;index"`
	OrderNumber string    `gorm:"column:order_number;size:64"`
	ProductID   string    `gorm:"column:product_id;size:64;index"`
	Field       string    `gorm:"column:field;size:32"`
	Quantity    int       `gorm:"column:quantity"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (adjustmentRecord) TableName() string { return "stock_adjustments" }

// Save upserts a product row.
func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(product)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":           record.Name,
				"price":          record.Price,
				"image_url":      record.ImageURL,
				"stock":          record.Stock,
				"stock_quantity": record.StockQuantity,
				"updated_at":     gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a product by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// ApplyAdjustment records the adjustment key and performs the conditional decrement in
// one transaction. A key conflict means the adjustment already ran.
func (r *Repository) ApplyAdjustment(ctx context.Context, adj domain.StockAdjustment) (ports.AdjustmentResult, error) {
	if err := r.ensureDB(); err != nil {
		return ports.AdjustmentResult{}, err
	}
	if err := adj.Validate(); err != nil {
		return ports.AdjustmentResult{}, err
	}
	column := string(adj.Field)
	var result ports.AdjustmentResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := adjustmentRecord{
			Key:         adj.Key(),
			OrderID:     adj.OrderID,
			OrderNumber: adj.OrderNumber,
			ProductID:   adj.ProductID,
			Field:       column,
			Quantity:    adj.Quantity,
		}
		inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ledger)
		if inserted.Error != nil {
			return inserted.Error
		}
		if inserted.RowsAffected == 0 {
			result.Duplicate = true
			return r.loadRemaining(tx, adj, &result)
		}
		updated := tx.Model(&productRecord{}).
			Where("id = ? AND "+column+" >= ?", adj.ProductID, adj.Quantity).
			Update(column, gorm.Expr(column+" - ?", adj.Quantity))
		if updated.Error != nil {
			return updated.Error
		}
		if updated.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&productRecord{}).Where("id = ?", adj.ProductID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ports.ErrNotFound
			}
			return domain.ErrInsufficientStock
		}
		result.Applied = true
		return r.loadRemaining(tx, adj, &result)
	})
	if err != nil {
		return ports.AdjustmentResult{}, err
	}
	return result, nil
}

func (r *Repository) loadRemaining(tx *gorm.DB, adj domain.StockAdjustment, result *ports.AdjustmentResult) error {
	var record productRecord
	if err := tx.First(&record, "id = ?", adj.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ErrNotFound
		}
		return err
	}
	_, level, _ := record.toDomain().TrackedStock()
	result.Remaining = level
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

func toRecord(product *domain.Product) productRecord {
	clone := product.Clone()
	return productRecord{
		ID:            clone.ID,
		Name:          clone.Name,
		Price:         clone.Price,
		ImageURL:      clone.ImageURL,
		Stock:         clone.Stock,
		StockQuantity: clone.StockQuantity,
	}
}

func (r productRecord) toDomain() *domain.Product {
	product := &domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		Price:         r.Price,
		ImageURL:      r.ImageURL,
		Stock:         r.Stock,
		StockQuantity: r.StockQuantity,
	}
	return product.Clone()
}
