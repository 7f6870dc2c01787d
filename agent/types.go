package agent

import (
	"github.com/tbxark/cakeagent/command"
	"github.com/tbxark/cakeagent/order"
)

// UserFacingError is what the end user sees when a turn fails.
const UserFacingError = "Sorry, something went wrong. Please try again."

type Request struct {
	Prompt       string       `json:"prompt"`
	CurrentState *order.State `json:"currentState,omitempty"`
}

type FormRequest struct {
	CurrentState *order.State      `json:"currentState,omitempty"`
	Ops          []order.Operation `json:"ops"`
}

type Response struct {
	Data  order.State `json:"data"`
	Reply string      `json:"reply"`

	Structured bool              `json:"structured"`
	Complete   bool              `json:"complete"`
	Missing    []string          `json:"missing"`
	Changes    []order.Operation `json:"changes"`
	Quote      order.Quote       `json:"quote"`
	Command    command.Command   `json:"command,omitempty"`
	Reference  string            `json:"reference,omitempty"`
}
