package testcases

import (
	"context"
	"strings"
	"testing"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/order"
)

// TestLLMDialogue checks the phrased follow-up still asks for something.
func TestLLMDialogue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	flow := NewTestFlow(t, WithLLMDialogue())

	prev := order.State{CakeType: "birthday"}
	resp, err := flow.Invoke(ctx, &agent.Request{Prompt: "Chocolate, please", CurrentState: &prev})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	t.Logf("reply: %s", resp.Reply)
	if strings.TrimSpace(resp.Reply) == "" {
		t.Error("expected a follow-up question")
	}
	if resp.Complete {
		t.Error("order should not be complete")
	}
}
