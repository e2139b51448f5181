package observability

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
)

type stubService struct {
	createResult *ordertypes.CreateOrderResult
	createErr    error
	sweepResult  *ordertypes.SweepResult
}

func (s *stubService) CreateOrder(context.Context, ordertypes.CreateOrderInput) (*ordertypes.CreateOrderResult, error) {
	return s.createResult, s.createErr
}

func (s *stubService) GetOrderByNumber(context.Context, string) (*domain.Order, error) {
	return nil, ports.ErrNotFound
}

func (s *stubService) ListOrdersForUser(context.Context, uuid.UUID) ([]*domain.Order, error) {
	return nil, nil
}

func (s *stubService) SweepStatuses(context.Context) (*ordertypes.SweepResult, error) {
	return s.sweepResult, nil
}

func (s *stubService) RefreshOrderStatus(context.Context, string) (*domain.Order, error) {
	return nil, ports.ErrNotFound
}

func setup(inner ports.Service) (ports.Service, *sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	return New(inner, WithMeter(mp.Meter("test")), WithTracer(tp.Tracer("test"))), reader, spans
}

func counterPoints(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				return sum.DataPoints
			}
		}
	}
	return nil
}

func TestCreateOrder_CountsPlacedAndFailedAdjustments(t *testing.T) {
	inner := &stubService{createResult: &ordertypes.CreateOrderResult{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-1-aaaaaaa",
		Stock:       ordertypes.StockAdjustmentSummary{Requested: 2, Applied: 1, Failed: 1},
	}}
	svc, reader, spans := setup(inner)

	_, err := svc.CreateOrder(context.Background(), ordertypes.CreateOrderInput{})
	require.NoError(t, err)

	placed := counterPoints(t, reader, "orders.service.orders_placed")
	require.Len(t, placed, 1)
	assert.EqualValues(t, 1, placed[0].Value)
	failures := counterPoints(t, reader, "orders.service.stock_adjustment_failures")
	require.Len(t, failures, 1)
	assert.EqualValues(t, 1, failures[0].Value)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "OrderService.CreateOrder", ended[0].Name())
}

func TestCreateOrder_ReplayIsNotCounted(t *testing.T) {
	inner := &stubService{createResult: &ordertypes.CreateOrderResult{OrderNumber: "ORD-1-aaaaaaa", Replayed: true}}
	svc, reader, _ := setup(inner)

	_, err := svc.CreateOrder(context.Background(), ordertypes.CreateOrderInput{})
	require.NoError(t, err)
	assert.Empty(t, counterPoints(t, reader, "orders.service.orders_placed"))
}

func TestCreateOrder_RejectionReason(t *testing.T) {
	inner := &stubService{createErr: &application.InsufficientStockError{ProductID: "P1", ProductName: "Mug", Available: 1, Requested: 2}}
	svc, reader, spans := setup(inner)

	_, err := svc.CreateOrder(context.Background(), ordertypes.CreateOrderInput{})
	require.ErrorIs(t, err, application.ErrInsufficientStock)

	rejected := counterPoints(t, reader, "orders.service.orders_rejected")
	require.Len(t, rejected, 1)
	reason, ok := rejected[0].Attributes.Value(attribute.Key("reason"))
	require.True(t, ok)
	assert.Equal(t, "insufficient_stock", reason.AsString())

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestSweepStatuses_CountsTransitions(t *testing.T) {
	inner := &stubService{sweepResult: &ordertypes.SweepResult{
		Examined: 2,
		Updated:  2,
		Transitions: []ordertypes.StatusTransition{
			{From: domain.StatusPending, To: domain.StatusShipped},
			{From: domain.StatusShipped, To: domain.StatusDelivered},
		},
	}}
	svc, reader, _ := setup(inner)

	_, err := svc.SweepStatuses(context.Background())
	require.NoError(t, err)
	assert.Len(t, counterPoints(t, reader, "orders.service.status_transitions"), 2)
}
