package testcases

import (
	"context"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/command"
	"github.com/tbxark/cakeagent/dialogue"
	"github.com/tbxark/cakeagent/order"
)

type recordingManager struct {
	mu     sync.Mutex
	orders []order.State
}

func (m *recordingManager) PlaceOrder(ctx context.Context, state order.State) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, state)
	return "CAKE-LIVE", nil
}

// TestCommandsWithKeywordParser resets and confirms through the keyword parser.
func TestCommandsWithKeywordParser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	manager := &recordingManager{}
	flow := NewTestFlow(t, WithCommandParser(command.NewLocalParser()), WithOrderManager(manager))

	full := order.State{
		CakeType: "birthday", Flavor: "chocolate", Size: "medium", Layers: "1",
		Filling: "jam", Icing: "buttercream", Toppings: []string{"sprinkles"},
		Decor: []string{"none"}, Allergies: "none",
	}
	resp, err := flow.Invoke(ctx, &agent.Request{Prompt: "confirm", CurrentState: &full})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if resp.Reference != "CAKE-LIVE" || len(manager.orders) != 1 {
		t.Errorf("expected the order to be placed, got reference %q", resp.Reference)
	}

	resp, err = flow.Invoke(ctx, &agent.Request{Prompt: "start over", CurrentState: &full})
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if !resp.Data.IsEmpty() || resp.Reply != dialogue.Greeting {
		t.Errorf("expected an empty order and the greeting, got %+v %q", resp.Data, resp.Reply)
	}
}

// TestCommandsWithToolParser lets the model recognise a paraphrased reset.
func TestCommandsWithToolParser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	chatModel, _ := InitChatModel(t)
	if chatModel == nil {
		return
	}
	toolModel, ok := chatModel.(model.ToolCallingChatModel)
	if !ok {
		t.Skip("provider cannot call tools")
	}
	parser, err := command.NewToolBasedParser(toolModel)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	cmd, err := parser.ParseCommand(ctx, "Forget everything, let's start from scratch")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd != command.Reset {
		t.Errorf("expected reset, got %q", cmd)
	}

	cmd, err = parser.ParseCommand(ctx, "Make it a chocolate cake")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd != command.None {
		t.Errorf("expected no command, got %q", cmd)
	}
}
