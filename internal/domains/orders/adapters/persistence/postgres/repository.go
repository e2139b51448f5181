package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. The schema is owned by
// platform/migrations.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate to the orders table. Address and item snapshots
// are stored as JSON documents.
type orderRecord struct {
	ID            uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	OrderNumber   string          `gorm:"column:order_number;size:64;uniqueIndex"`
	UserID        *uuid.UUID      `gorm:"column:user_id;type:uuid;index"`
	CustomerEmail string          `gorm:"column:customer_email"`
	ShippingInfo  addressDocument `gorm:"column:shipping_info;serializer:json;type:jsonb"`
	BillingInfo   addressDocument `gorm:"column:billing_info;serializer:json;type:jsonb"`
	Items         []itemDocument  `gorm:"column:order_items;serializer:json;type:jsonb"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	ShippingCost  decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2)"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	Status        string          `gorm:"column:status;type:varchar(32);index"`
	CreatedAt     time.Time       `gorm:"column:created_at;index"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type addressDocument struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Line1     string `json:"address"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

type itemDocument struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl"`
}

// Create inserts a new order. A taken order number yields ErrDuplicateOrderNumber.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrDuplicateOrderNumber
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByNumber fetches an order by its public order number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.first(ctx, "order_number = ?", number)
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

func (r *Repository) ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Where("status = ANY(?)", pq.Array(names)).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return toDomainList(records), nil
}

// TransitionStatus updates status and updated_at only while the stored status still
// equals from.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, at time.Time) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return ports.ErrStatusConflict
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		ShippingInfo:  toAddressDocument(order.ShippingInfo),
		BillingInfo:   toAddressDocument(order.BillingInfo),
		Items:         make([]itemDocument, 0, len(order.Items)),
		Subtotal:      order.Subtotal,
		ShippingCost:  order.ShippingCost,
		Total:         order.Total,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	if order.UserID != nil {
		id := *order.UserID
		rec.UserID = &id
	}
	for _, item := range order.Items {
		rec.Items = append(rec.Items, itemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:            r.ID,
		OrderNumber:   r.OrderNumber,
		CustomerEmail: r.CustomerEmail,
		ShippingInfo:  r.ShippingInfo.toDomain(),
		BillingInfo:   r.BillingInfo.toDomain(),
		Items:         make([]domain.LineItem, 0, len(r.Items)),
		Subtotal:      r.Subtotal,
		ShippingCost:  r.ShippingCost,
		Total:         r.Total,
		Status:        domain.Status(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.UserID != nil {
		id := *r.UserID
		order.UserID = &id
	}
	for _, item := range r.Items {
		order.Items = append(order.Items, domain.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return order
}

func toDomainList(records []orderRecord) []*domain.Order {
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders
}

func toAddressDocument(a domain.Address) addressDocument {
	return addressDocument{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Line1:     a.Line1,
		City:      a.City,
		Postcode:  a.Postcode,
		Country:   a.Country,
	}
}

func (d addressDocument) toDomain() domain.Address {
	return domain.Address{
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.Phone,
		Line1:     d.Line1,
		City:      d.City,
		Postcode:  d.Postcode,
		Country:   d.Country,
	}
}
