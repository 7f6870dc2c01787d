package agent

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tbxark/cakeagent/order"
)

// OrderManager takes a complete order and returns its reference.
type OrderManager interface {
	PlaceOrder(ctx context.Context, state order.State) (string, error)
}

// LogOrderManager only logs placed orders. It is used when no fulfillment
// backend is configured.
type LogOrderManager struct{}

func (LogOrderManager) PlaceOrder(ctx context.Context, state order.State) (string, error) {
	ref := uuid.NewString()
	q := order.PriceQuote(state)
	slog.Info("Order placed", "reference", ref, "total", q.FormatTotal(), "order", state)
	return ref, nil
}
