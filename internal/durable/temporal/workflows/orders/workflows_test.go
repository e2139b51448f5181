package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	catalogmemory "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-gin-storefront-api/internal/domains/catalog/domain"
	ordersmemory "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-storefront-api/internal/durable/temporal/activities/orders"
	"github.com/Apurer/go-gin-storefront-api/internal/durable/temporal/sequences"
)

func intPtr(v int) *int { return &v }

func newEnv(t *testing.T, acts *orderactivities.Activities) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(StockAdjustmentWorkflow, workflow.RegisterOptions{Name: StockAdjustmentWorkflowName})
	env.RegisterWorkflowWithOptions(OrderStatusSweepWorkflow, workflow.RegisterOptions{Name: OrderStatusSweepWorkflowName})
	env.RegisterActivityWithOptions(acts.ApplyStockAdjustment, activity.RegisterOptions{Name: orderactivities.ApplyStockAdjustmentActivityName})
	env.RegisterActivityWithOptions(acts.SweepOrderStatuses, activity.RegisterOptions{Name: orderactivities.SweepOrderStatusesActivityName})
	return env
}

func seedCatalog(t *testing.T) *catalogmemory.Repository {
	t.Helper()
	catalog := catalogmemory.NewRepository()
	for _, p := range []catalogdomain.Product{
		{ID: "P1", Name: "Mug", Price: decimal.NewFromInt(10), Stock: intPtr(5)},
		{ID: "P2", Name: "Tea", Price: decimal.NewFromInt(4), StockQuantity: intPtr(2)},
	} {
		p := p
		_, err := catalog.Save(context.Background(), &p)
		require.NoError(t, err)
	}
	return catalog
}

func batch() orderports.StockAdjustmentBatch {
	adj := func(line int, product string, field catalogdomain.StockField, qty int) catalogdomain.StockAdjustment {
		return catalogdomain.StockAdjustment{
			OrderID: "order-1", OrderNumber: "ORD-1-aaaaaaa", LineNo: line,
			ProductID: product, Field: field, Quantity: qty,
		}
	}
	return orderports.StockAdjustmentBatch{
		OrderID:     "order-1",
		OrderNumber: "ORD-1-aaaaaaa",
		Adjustments: []catalogdomain.StockAdjustment{
			adj(0, "P1", catalogdomain.StockFieldStock, 2),
			adj(1, "gone", catalogdomain.StockFieldStock, 1),
			adj(2, "P2", catalogdomain.StockFieldQuantity, 1),
		},
	}
}

func TestStockAdjustmentWorkflow_SkipsFailedLines(t *testing.T) {
	catalog := seedCatalog(t)
	env := newEnv(t, orderactivities.NewActivities(catalog, nil))

	env.ExecuteWorkflow(StockAdjustmentWorkflowName, StockAdjustmentWorkflowInput{Batch: batch(), TraceID: "trace-1"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report sequences.StockAdjustmentReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Duplicates)

	p1, err := catalog.GetByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, *p1.Stock)
	p2, err := catalog.GetByID(context.Background(), "P2")
	require.NoError(t, err)
	assert.Equal(t, 1, *p2.StockQuantity)
}

func TestStockAdjustmentWorkflow_RerunDoesNotDecrementTwice(t *testing.T) {
	catalog := seedCatalog(t)
	acts := orderactivities.NewActivities(catalog, nil)

	first := newEnv(t, acts)
	first.ExecuteWorkflow(StockAdjustmentWorkflowName, StockAdjustmentWorkflowInput{Batch: batch()})
	require.NoError(t, first.GetWorkflowError())

	second := newEnv(t, acts)
	second.ExecuteWorkflow(StockAdjustmentWorkflowName, StockAdjustmentWorkflowInput{Batch: batch()})
	require.NoError(t, second.GetWorkflowError())

	var report sequences.StockAdjustmentReport
	require.NoError(t, second.GetWorkflowResult(&report))
	assert.Zero(t, report.Applied)
	assert.Equal(t, 2, report.Duplicates)

	p1, err := catalog.GetByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 3, *p1.Stock)
}

func TestOrderStatusSweepWorkflow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	orders := ordersmemory.NewRepository()
	addr := domain.Address{Email: "ada@example.com"}
	items := []domain.LineItem{{ProductID: "P1", Name: "Mug", UnitPrice: decimal.NewFromInt(10), Quantity: 1}}
	order, err := domain.NewOrder("ORD-1-aaaaaaa", nil, addr, addr, items,
		decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(10), now.Add(-30*time.Hour))
	require.NoError(t, err)
	_, err = orders.Create(context.Background(), order)
	require.NoError(t, err)

	svc := ordersapp.NewService(orders, catalogmemory.NewRepository(), nil, ordersapp.WithClock(func() time.Time { return now }))
	env := newEnv(t, orderactivities.NewActivities(nil, svc))

	env.ExecuteWorkflow(OrderStatusSweepWorkflowName)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ordertypes.SweepResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 1, result.Updated)

	stored, err := orders.GetByNumber(context.Background(), "ORD-1-aaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, stored.Status)
}
