package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	catalogdomain "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/ports"
	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
)

const maxOrderNumberAttempts = 3

// Service orchestrates order creation and status progression.
type Service struct {
	orders      ports.Repository
	catalog     catalogports.Repository
	dispatcher  ports.StockAdjustmentDispatcher
	idempotency ports.IdempotencyStore
	policy      domain.ProgressionPolicy
	now         func() time.Time
	newNumber   func(time.Time) string
	logger      *slog.Logger
}

type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key replay for CreateOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

func WithProgressionPolicy(policy domain.ProgressionPolicy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithOrderNumberGenerator(gen func(time.Time) string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newNumber = gen
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the order use cases. dispatcher may be nil, in which case stock
// adjustments are skipped with a warning.
func NewService(orders ports.Repository, catalog catalogports.Repository, dispatcher ports.StockAdjustmentDispatcher, opts ...Option) *Service {
	s := &Service{
		orders:     orders,
		catalog:    catalog,
		dispatcher: dispatcher,
		policy:     domain.DefaultProgressionPolicy(),
		now:        time.Now,
		newNumber:  domain.NewOrderNumber,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type reservation struct {
	lineNo int
	item   domain.LineItem
	field  catalogdomain.StockField
}

// CreateOrder checks stock for every line, stores the order as pending, then hands the
// stock decrements to the dispatcher. Nothing is written when a check fails; once the
// order row exists, decrement failures are logged and never undo it. With an
// idempotency key the key is claimed before any check, so concurrent submissions of the
// same checkout create at most one order.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.CreateOrderResult, error) {
	input.Subtotal = domain.RoundMoney(input.Subtotal)
	input.ShippingCost = domain.RoundMoney(input.ShippingCost)
	input.Total = domain.RoundMoney(input.Total)
	items, err := toLineItems(input.Items)
	if err != nil {
		return nil, mapError(err)
	}
	if err := domain.VerifyTotals(items, input.Subtotal, input.ShippingCost, input.Total); err != nil {
		return nil, mapError(err)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return s.placeOrder(ctx, input, items)
	}

	fingerprint, err := FingerprintCreateOrder(input)
	if err != nil {
		return nil, err
	}
	existing, err := s.idempotency.Claim(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: fingerprint,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return replayResult(existing, fingerprint)
	}

	result, err := s.placeOrder(ctx, input, items)
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			s.logger.WarnContext(ctx, "failed to release idempotency key",
				slog.String("idempotency.key", key), slog.String("error", releaseErr.Error()))
		}
		return nil, err
	}
	if err := s.idempotency.Complete(ctx, key, result.OrderID.String(), result.OrderNumber); err != nil {
		s.logger.WarnContext(ctx, "failed to record idempotency key",
			slog.String("order.number", result.OrderNumber), slog.String("error", err.Error()))
	}
	return result, nil
}

func (s *Service) placeOrder(ctx context.Context, input ordertypes.CreateOrderInput, items []domain.LineItem) (*ordertypes.CreateOrderResult, error) {
	reservations, err := s.checkStock(ctx, items)
	if err != nil {
		return nil, mapError(err)
	}

	order, err := s.insertOrder(ctx, input, items)
	if err != nil {
		return nil, mapError(err)
	}

	result := &ordertypes.CreateOrderResult{OrderID: order.ID, OrderNumber: order.OrderNumber}
	result.Stock = s.dispatchAdjustments(ctx, order, reservations)
	return result, nil
}

func replayResult(existing *ports.IdempotencyRecord, fingerprint string) (*ordertypes.CreateOrderResult, error) {
	if existing.RequestHash != fingerprint {
		return nil, ports.ErrIdempotencyConflict
	}
	if existing.Pending() {
		return nil, ports.ErrIdempotencyInProgress
	}
	id, err := uuid.Parse(existing.OrderID)
	if err != nil {
		return nil, fmt.Errorf("stored idempotency record has invalid order id: %w", err)
	}
	return &ordertypes.CreateOrderResult{OrderID: id, OrderNumber: existing.OrderNumber, Replayed: true}, nil
}

func (s *Service) checkStock(ctx context.Context, items []domain.LineItem) ([]reservation, error) {
	requested := map[string]int{}
	reservations := make([]reservation, 0, len(items))
	for i, item := range items {
		product, err := s.catalog.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalogports.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
			}
			return nil, err
		}
		if !product.Price.Equal(item.UnitPrice) {
			return nil, fmt.Errorf("%w: %s costs %s, got %s", ErrPriceMismatch, product.Name,
				product.Price.StringFixed(2), item.UnitPrice.StringFixed(2))
		}
		field, level, tracked := product.TrackedStock()
		if !tracked {
			s.logger.WarnContext(ctx, "product does not track stock, skipping reservation",
				slog.String("product.id", item.ProductID), slog.String("product.name", item.Name))
			continue
		}
		requested[product.ID] += item.Quantity
		if level < requested[product.ID] {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: item.Name,
				Available:   level,
				Requested:   requested[product.ID],
			}
		}
		reservations = append(reservations, reservation{lineNo: i, item: item, field: field})
	}
	return reservations, nil
}

func (s *Service) insertOrder(ctx context.Context, input ordertypes.CreateOrderInput, items []domain.LineItem) (*domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		now := s.now()
		order, err := domain.NewOrder(
			s.newNumber(now),
			input.UserID,
			toAddress(input.ShippingInfo),
			toAddress(input.BillingInfo),
			items,
			input.Subtotal,
			input.ShippingCost,
			input.Total,
			now,
		)
		if err != nil {
			return nil, err
		}
		saved, err := s.orders.Create(ctx, order)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ports.ErrDuplicateOrderNumber) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "order number collision, regenerating", slog.String("order.number", order.OrderNumber))
		lastErr = err
	}
	return nil, lastErr
}

func (s *Service) dispatchAdjustments(ctx context.Context, order *domain.Order, reservations []reservation) ordertypes.StockAdjustmentSummary {
	summary := ordertypes.StockAdjustmentSummary{Requested: len(reservations)}
	if len(reservations) == 0 {
		return summary
	}
	if s.dispatcher == nil {
		s.logger.WarnContext(ctx, "no stock adjustment dispatcher configured, stock left unchanged",
			slog.String("order.number", order.OrderNumber))
		summary.Failed = len(reservations)
		return summary
	}
	batch := ports.StockAdjustmentBatch{OrderID: order.ID.String(), OrderNumber: order.OrderNumber}
	for _, r := range reservations {
		batch.Adjustments = append(batch.Adjustments, catalogdomain.StockAdjustment{
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			LineNo:      r.lineNo,
			ProductID:   r.item.ProductID,
			Field:       r.field,
			Quantity:    r.item.Quantity,
			RequestedAt: order.CreatedAt,
		})
	}
	report, err := s.dispatcher.Dispatch(ctx, batch)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to dispatch stock adjustments, order kept",
			slog.String("order.number", order.OrderNumber), slog.String("error", err.Error()))
		summary.Failed = len(reservations)
		return summary
	}
	summary.Applied = report.Applied
	summary.Failed = report.Failed
	summary.Queued = report.Queued
	return summary
}

// GetOrderByNumber is a read-only lookup.
func (s *Service) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.orders.GetByNumber(ctx, strings.TrimSpace(number))
}

// ListOrdersForUser returns the user's orders newest first.
func (s *Service) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// SweepStatuses advances every open order at most one step based on its age. A failed
// write is logged and counted; it never stops the sweep.
func (s *Service) SweepStatuses(ctx context.Context) (*ordertypes.SweepResult, error) {
	now := s.now()
	candidates, err := s.orders.ListByStatus(ctx, domain.OpenStatuses)
	if err != nil {
		return nil, err
	}
	result := &ordertypes.SweepResult{Examined: len(candidates)}
	for _, order := range candidates {
		updated, changed, err := s.advance(ctx, order, now)
		if err != nil {
			result.Failed++
			s.logger.ErrorContext(ctx, "failed to advance order status",
				slog.String("order.number", order.OrderNumber), slog.String("error", err.Error()))
			continue
		}
		if !changed {
			continue
		}
		result.Updated++
		result.Transitions = append(result.Transitions, ordertypes.StatusTransition{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			From:        order.Status,
			To:          updated.Status,
		})
	}
	return result, nil
}

// RefreshOrderStatus applies the progression rule to a single order and returns it.
// A failed write leaves the stored status in place and is only logged.
func (s *Service) RefreshOrderStatus(ctx context.Context, number string) (*domain.Order, error) {
	order, err := s.orders.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return order, nil
	}
	updated, _, err := s.advance(ctx, order, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to advance order status",
			slog.String("order.number", order.OrderNumber), slog.String("error", err.Error()))
		return order, nil
	}
	return updated, nil
}

func (s *Service) advance(ctx context.Context, order *domain.Order, now time.Time) (*domain.Order, bool, error) {
	next, changed := s.policy.Next(order.Status, order.Age(now))
	if !changed {
		return order, false, nil
	}
	updated := order.Clone()
	if err := updated.Transition(next, now); err != nil {
		return nil, false, err
	}
	if err := s.orders.TransitionStatus(ctx, order.ID, order.Status, next, now); err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func toLineItems(inputs []ordertypes.LineItemInput) ([]domain.LineItem, error) {
	if len(inputs) == 0 {
		return nil, domain.ErrEmptyItems
	}
	items := make([]domain.LineItem, 0, len(inputs))
	for _, in := range inputs {
		item := domain.LineItem{
			ProductID: strings.TrimSpace(in.ProductID),
			Name:      in.Name,
			UnitPrice: domain.RoundMoney(in.UnitPrice),
			Quantity:  in.Quantity,
			ImageURL:  in.ImageURL,
		}
		if err := domain.ValidateLineItem(item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func toAddress(in ordertypes.AddressInput) domain.Address {
	return domain.Address{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Line1:     in.Line1,
		City:      in.City,
		Postcode:  in.Postcode,
		Country:   in.Country,
	}
}

var _ ports.Service = (*Service)(nil)
