package migrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&stockAdjustmentRecord{},
		&orderRecord{},
		&orderIdempotencyRecord{},
	)
}

// Product schema mirrors the catalogue Postgres adapter. Either stock column may be
// null; the order flow prefers stock over stock_quantity.
type productRecord struct {
	ID            string          `gorm:"primaryKey;column:id;size:64"`
	Name          string          `gorm:"column:name"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	ImageURL      string          `gorm:"column:image_url"`
	Stock         *int            `gorm:"column:stock;check:chk_products_stock,stock >= 0"`
	StockQuantity *int            `gorm:"column:stock_quantity;check:chk_products_stock_quantity,stock_quantity >= 0"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Stock adjustment ledger, keyed by order id and line number.
type stockAdjustmentRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:128"`
	OrderID     string    `gorm:"column:order_id;size:64;index"`
	OrderNumber string    `gorm:"column:order_number;size:64"`
	ProductID   string    `gorm:"column:product_id;size:64;index"`
	Field       string    `gorm:"column:field;size:32"`
	Quantity    int       `gorm:"column:quantity"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (stockAdjustmentRecord) TableName() string { return "stock_adjustments" }

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID            uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	OrderNumber   string          `gorm:"column:order_number;size:64;uniqueIndex"`
	UserID        *uuid.UUID      `gorm:"column:user_id;type:uuid;index"`
	CustomerEmail string          `gorm:"column:customer_email"`
	ShippingInfo  map[string]any  `gorm:"column:shipping_info;serializer:json;type:jsonb"`
	BillingInfo   map[string]any  `gorm:"column:billing_info;serializer:json;type:jsonb"`
	Items         []any           `gorm:"column:order_items;serializer:json;type:jsonb"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	ShippingCost  decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2)"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	Status        string          `gorm:"column:status;type:varchar(32);index"`
	CreatedAt     time.Time       `gorm:"column:created_at;index"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Idempotency schema mirrors the orders idempotency store.
type orderIdempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     string    `gorm:"column:order_id;size:64"`
	OrderNumber string    `gorm:"column:order_number;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }
