package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.CreateOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(attribute.Int("order.items", len(input.Items)), attribute.Bool("order.guest", input.UserID == nil)))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int("order.items", len(input.Items)), slog.String("order.total", input.Total.StringFixed(2)))
	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, rejectionReason(err))
		return nil, s.handleError(ctx, span, err, "failed to create order")
	}
	span.SetAttributes(
		attribute.String("order.number", result.OrderNumber),
		attribute.Bool("order.replayed", result.Replayed),
	)
	if result.Replayed {
		s.logInfo(ctx, "order replayed from idempotency key", slog.String("order.number", result.OrderNumber))
		return result, nil
	}
	s.metrics.recordPlaced(ctx)
	s.metrics.recordAdjustmentFailures(ctx, result.Stock.Failed)
	s.logInfo(ctx, "order created",
		slog.String("order.number", result.OrderNumber),
		slog.String("order.id", result.OrderID.String()),
		slog.Int("stock.applied", result.Stock.Applied),
		slog.Int("stock.failed", result.Stock.Failed),
		slog.Bool("stock.queued", result.Stock.Queued))
	return result, nil
}

func (s *Service) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrderByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	result, err := s.inner.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.number", number))
	}
	s.logInfo(ctx, "order loaded", slog.String("order.number", number), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrdersForUser", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	result, err := s.inner.ListOrdersForUser(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("user.id", userID.String()))
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) SweepStatuses(ctx context.Context) (*ordertypes.SweepResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.SweepStatuses")
	defer span.End()

	s.logInfo(ctx, "sweeping order statuses")
	result, err := s.inner.SweepStatuses(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to sweep order statuses")
	}
	for _, t := range result.Transitions {
		s.metrics.recordTransition(ctx, t.From, t.To)
	}
	span.SetAttributes(
		attribute.Int("sweep.examined", result.Examined),
		attribute.Int("sweep.updated", result.Updated),
		attribute.Int("sweep.failed", result.Failed),
	)
	s.logInfo(ctx, "order statuses swept",
		slog.Int("sweep.examined", result.Examined),
		slog.Int("sweep.updated", result.Updated),
		slog.Int("sweep.failed", result.Failed))
	return result, nil
}

func (s *Service) RefreshOrderStatus(ctx context.Context, number string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.RefreshOrderStatus", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	before, _ := s.inner.GetOrderByNumber(ctx, number)
	result, err := s.inner.RefreshOrderStatus(ctx, number)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to refresh order status", slog.String("order.number", number))
	}
	if before != nil && before.Status != result.Status {
		s.metrics.recordTransition(ctx, before.Status, result.Status)
		s.logInfo(ctx, "order status advanced", slog.String("order.number", number),
			slog.String("from", string(before.Status)), slog.String("to", string(result.Status)))
	}
	return result, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, application.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, application.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, application.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ports.ErrIdempotencyConflict), errors.Is(err, ports.ErrIdempotencyInProgress):
		return "idempotency_conflict"
	default:
		return "error"
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersPlaced       metric.Int64Counter
	ordersRejected     metric.Int64Counter
	statusTransitions  metric.Int64Counter
	adjustmentFailures metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders placed"))
	ordersRejected, _ := m.Int64Counter("orders.service.orders_rejected", metric.WithDescription("Number of order submissions rejected"))
	statusTransitions, _ := m.Int64Counter("orders.service.status_transitions", metric.WithDescription("Number of order status changes"))
	adjustmentFailures, _ := m.Int64Counter("orders.service.stock_adjustment_failures", metric.WithDescription("Number of stock decrements that failed after an order was stored"))
	return serviceMetrics{
		ordersPlaced:       ordersPlaced,
		ordersRejected:     ordersRejected,
		statusTransitions:  statusTransitions,
		adjustmentFailures: adjustmentFailures,
	}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, reason string) {
	if m.ordersRejected != nil {
		m.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, from, to domain.Status) {
	if m.statusTransitions != nil {
		m.statusTransitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("order.status.from", string(from)),
			attribute.String("order.status.to", string(to)),
		))
	}
}

func (m serviceMetrics) recordAdjustmentFailures(ctx context.Context, n int) {
	if m.adjustmentFailures != nil && n > 0 {
		m.adjustmentFailures.Add(ctx, int64(n))
	}
}

var _ ports.Service = (*Service)(nil)
