package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-storefront-api/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-storefront-api/internal/durable/temporal/activities/orders"
)

// RunStatusSweepSequence executes one progression sweep. Per-order failures are already
// absorbed by the activity; only a failed candidate query is retried.
func RunStatusSweepSequence(ctx workflow.Context) (*ordertypes.SweepResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("status sweep sequence started")
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var result ordertypes.SweepResult
	if err := workflow.ExecuteActivity(ctx, orderactivities.SweepOrderStatusesActivityName).Get(ctx, &result); err != nil {
		logger.Error("status sweep sequence failed", "error", err)
		return nil, err
	}
	logger.Info("status sweep sequence completed", "updated", result.Updated, "failed", result.Failed)
	return &result, nil
}
