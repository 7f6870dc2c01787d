package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/tbxark/cakeagent/dialogue"
	"github.com/tbxark/cakeagent/order"
)

// Notifier tells the bakery about a scheduled order.
type Notifier interface {
	Notify(ctx context.Context, ticket BakeTicket, summary string) error
}

type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, ticket BakeTicket, summary string) error {
	slog.Info("Bakery notified", "reference", ticket.Reference, "bake_date", ticket.BakeDate.Format(time.DateOnly), "summary", summary)
	return nil
}

type Activities struct {
	Notifier Notifier
	// LeadTime is the minimum time between placing and baking; wedding cakes get three times as long.
	LeadTime time.Duration
	Now      func() time.Time
}

func NewActivities(notifier Notifier, leadTime time.Duration) *Activities {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if leadTime <= 0 {
		leadTime = 24 * time.Hour
	}
	return &Activities{Notifier: notifier, LeadTime: leadTime, Now: time.Now}
}

// ValidateOrder rejects orders that are incomplete or not canonical.
func (a *Activities) ValidateOrder(ctx context.Context, in OrderInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Validating order", "reference", in.Reference)

	if in.Reference == "" {
		return nonRetryable(&ValidationError{Msg: "order reference is empty"})
	}
	if res := dialogue.Evaluate(in.Order); !res.Complete() {
		return nonRetryable(&ValidationError{Msg: "order is missing " + strings.Join(res.Missing, ", ")})
	}
	if _, dropped := order.MergeReport(in.Order, order.Record{}); len(dropped) > 0 {
		return nonRetryable(&ValidationError{Msg: fmt.Sprintf("order has invalid values: %v", dropped)})
	}
	return nil
}

func (a *Activities) QuoteOrder(ctx context.Context, in OrderInput) (order.Quote, error) {
	q := order.PriceQuote(in.Order)
	activity.GetLogger(ctx).Info("Order priced", "reference", in.Reference, "total", q.FormatTotal())
	return q, nil
}

func (a *Activities) ScheduleBake(ctx context.Context, in OrderInput) (BakeTicket, error) {
	lead := a.LeadTime
	if in.Order.CakeType == order.CakeWedding {
		lead *= 3
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	bakeDate := now().Add(lead).Truncate(24 * time.Hour)
	ticket := BakeTicket{Reference: in.Reference, BakeDate: bakeDate, Layers: in.Order.LayerCount()}
	activity.GetLogger(ctx).Info("Bake scheduled", "reference", in.Reference, "bake_date", bakeDate)
	return ticket, nil
}

func (a *Activities) NotifyBakery(ctx context.Context, ticket BakeTicket, summary string) error {
	activity.GetLogger(ctx).Info("Notifying bakery", "reference", ticket.Reference)
	if err := a.Notifier.Notify(ctx, ticket, summary); err != nil {
		return fmt.Errorf("notify bakery: %w", err)
	}
	return nil
}

func nonRetryable(err *ValidationError) error {
	return temporal.NewNonRetryableApplicationError(err.Msg, validationErrorType, err)
}
