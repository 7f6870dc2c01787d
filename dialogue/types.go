package dialogue

import (
	"context"

	"github.com/tbxark/cakeagent/order"
)

type NextTurnPlan struct {
	Message string `json:"message" jsonschema:"required,description=Natural conversational response to the user"`
}

// Result is the per-turn completion outcome. Both lists follow registry order.
type Result struct {
	Filled  []string `json:"filled"`
	Missing []string `json:"missing"`
}

func (r Result) Complete() bool {
	return len(r.Missing) == 0
}

type Request struct {
	State  order.State
	Result Result

	LastUserInput string
	Extracted     bool
}

func NewRequest(state order.State, lastUserInput string, extracted bool) *Request {
	return &Request{
		State:         state,
		Result:        Evaluate(state),
		LastUserInput: lastUserInput,
		Extracted:     extracted,
	}
}

type Generator interface {
	GenerateDialogue(ctx context.Context, req *Request) (string, error)
}
