package testcases

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/order"
)

// TestOffTopicKeepsState sends a message with no order details; whatever
// the model answers, the state must not lose values.
func TestOffTopicKeepsState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	flow := NewTestFlow(t)

	prev := order.State{CakeType: "cupcake", Flavor: "lemon", Size: "small"}
	resp, err := flow.Invoke(ctx, &agent.Request{
		Prompt:       "Thanks, that's all I know for now.",
		CurrentState: &prev,
	})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	t.Logf("structured=%v reply: %s", resp.Structured, resp.Reply)
	if diff := cmp.Diff(prev, resp.Data, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("state changed (-want +got):\n%s", diff)
	}
}
