// Package fulfillment hands placed cake orders to a Temporal workflow that
// validates, prices, schedules and announces them to the bakery.
package fulfillment

import (
	"time"

	"github.com/tbxark/cakeagent/order"
)

const (
	DefaultTaskQueue = "cake-order-task-queue"
	WorkflowIDPrefix = "cake-order-"
	StatusQuery      = "get-status"

	validationErrorType = "ValidationError"
)

// ValidationError marks an order that can never succeed, so it is not retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

type OrderInput struct {
	Reference string      `json:"reference"`
	Order     order.State `json:"order"`
}

type BakeTicket struct {
	Reference string    `json:"reference"`
	BakeDate  time.Time `json:"bakeDate"`
	Layers    int       `json:"layers"`
}

// Status is both the workflow result and the get-status query answer.
type Status struct {
	Reference string    `json:"reference"`
	Stage     string    `json:"stage"`
	Total     int       `json:"total"`
	BakeDate  time.Time `json:"bakeDate"`
	Notified  bool      `json:"notified"`
	LastError string    `json:"lastError,omitempty"`
}
