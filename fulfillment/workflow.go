package fulfillment

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tbxark/cakeagent/order"
)

// CakeOrderWorkflow validates, prices and schedules a placed order, then
// notifies the bakery. A failed notification does not fail the order.
func CakeOrderWorkflow(ctx workflow.Context, in OrderInput) (Status, error) {
	logger := workflow.GetLogger(ctx)

	status := Status{Reference: in.Reference, Stage: "start"}
	if err := workflow.SetQueryHandler(ctx, StatusQuery, func() (Status, error) {
		return status, nil
	}); err != nil {
		return status, err
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{validationErrorType},
		},
	})

	status.Stage = "validate"
	if err := workflow.ExecuteActivity(ctx, "ValidateOrder", in).Get(ctx, nil); err != nil {
		status.LastError = err.Error()
		logger.Warn("Order rejected", "reference", in.Reference, "error", err)
		return status, err
	}

	status.Stage = "quote"
	var quote order.Quote
	if err := workflow.ExecuteActivity(ctx, "QuoteOrder", in).Get(ctx, &quote); err != nil {
		status.LastError = fmt.Sprintf("quote failed: %v", err)
		return status, err
	}
	status.Total = quote.Total

	status.Stage = "schedule"
	var ticket BakeTicket
	if err := workflow.ExecuteActivity(ctx, "ScheduleBake", in).Get(ctx, &ticket); err != nil {
		status.LastError = fmt.Sprintf("schedule failed: %v", err)
		return status, err
	}
	status.BakeDate = ticket.BakeDate

	status.Stage = "notify"
	if err := workflow.ExecuteActivity(ctx, "NotifyBakery", ticket, order.Summary(in.Order)).Get(ctx, nil); err != nil {
		status.LastError = fmt.Sprintf("notify failed: %v", err)
		logger.Warn("Bakery notification failed", "reference", in.Reference, "error", err)
	} else {
		status.Notified = true
	}

	status.Stage = "scheduled"
	logger.Info("Order scheduled", "reference", in.Reference, "total", quote.FormatTotal())
	return status, nil
}
