package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tbxark/cakeagent/command"
	"github.com/tbxark/cakeagent/dialogue"
	"github.com/tbxark/cakeagent/llm"
	"github.com/tbxark/cakeagent/llm/llmtest"
	"github.com/tbxark/cakeagent/order"
)

func newFlow(t *testing.T, fake *llmtest.FakeChatModel, opts ...FlowOption) *OrderFlow {
	t.Helper()
	flow, err := NewOrderFlow(llm.NewCollaborator(fake), opts...)
	require.NoError(t, err)
	return flow
}

func completeOrder() order.State {
	return order.State{
		CakeType:  "cupcake",
		Flavor:    "strawberry",
		Size:      "small",
		Layers:    "1",
		Filling:   "cream",
		Icing:     "buttercream",
		Toppings:  []string{"berries"},
		Decor:     []string{"honey"},
		Allergies: "none",
	}
}

type recordingManager struct {
	placed []order.State
	err    error
}

func (m *recordingManager) PlaceOrder(ctx context.Context, state order.State) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.placed = append(m.placed, state)
	return "ORD-1", nil
}

func TestFlowWeddingScenario(t *testing.T) {
	fake := llmtest.Text(`{"cakeType":"wedding","flavor":"chocolate","size":null,"toppings":[]}`)
	flow := newFlow(t, fake)

	resp, err := flow.Invoke(context.Background(), &Request{Prompt: "a chocolate wedding cake"})
	require.NoError(t, err)
	assert.True(t, resp.Structured)
	assert.Equal(t, "wedding", resp.Data.CakeType)
	assert.Equal(t, "chocolate", resp.Data.Flavor)
	assert.Empty(t, resp.Data.WeddingStyle)
	assert.Equal(t,
		"I've got your cakeType, flavor. Could you please tell me your preferred weddingStyle, size, layers, filling, icing, toppings, decor, allergies?",
		resp.Reply)
	assert.Equal(t, []order.Operation{
		{Op: order.OpAdd, Path: "/cakeType", Value: "wedding"},
		{Op: order.OpAdd, Path: "/flavor", Value: "chocolate"},
	}, resp.Changes)
	assert.Equal(t, 50, resp.Quote.Total)
}

func TestFlowNutScenarioWithFencedReply(t *testing.T) {
	fake := llmtest.Text("```json\n{\"toppings\":[\"nuts\",\"cherries\"]}\n```")
	flow := newFlow(t, fake)

	prev := order.State{Allergies: "nuts", Toppings: []string{"sprinkles"}}
	resp, err := flow.Invoke(context.Background(), &Request{Prompt: "add nuts and cherries", CurrentState: &prev})
	require.NoError(t, err)
	assert.Equal(t, []string{"cherries"}, resp.Data.Toppings)
	assert.Equal(t, "nuts", resp.Data.Allergies)
	assert.Equal(t, []string{"sprinkles"}, prev.Toppings)
}

func TestFlowInstructionCarriesHints(t *testing.T) {
	fake := llmtest.Text(`{}`)
	flow := newFlow(t, fake)

	prev := order.State{Flavor: "lemon", Toppings: []string{"sprinkles", "berries"}}
	_, err := flow.Invoke(context.Background(), &Request{Prompt: "hello", CurrentState: &prev})
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][0].Content, "- flavor: lemon\n- toppings: sprinkles, berries")
	assert.Equal(t, "hello", calls[0][1].Content)
}

func TestFlowUnstructuredReplyKeepsState(t *testing.T) {
	answer := "We offer vanilla, chocolate, strawberry, red velvet and lemon."
	flow := newFlow(t, llmtest.Text(answer))

	prev := order.State{CakeType: "birthday"}
	resp, err := flow.Invoke(context.Background(), &Request{Prompt: "what flavors do you have?", CurrentState: &prev})
	require.NoError(t, err)
	assert.False(t, resp.Structured)
	assert.Equal(t, answer, resp.Reply)
	if diff := cmp.Diff(prev, resp.Data, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("state changed on text answer (-want +got):\n%s", diff)
	}
	assert.Empty(t, resp.Changes)

	resp, err = flow.Invoke(context.Background(), &Request{Prompt: "what flavors do you have?"})
	require.NoError(t, err)
	assert.True(t, resp.Data.IsEmpty())
}

func TestFlowProviderErrors(t *testing.T) {
	cases := []struct {
		name  string
		reply llmtest.Reply
		want  error
	}{
		{"unavailable", llmtest.Reply{Err: errors.New("502 bad gateway")}, llm.ErrProviderUnavailable},
		{"protocol", llmtest.Reply{Message: &schema.Message{Role: schema.Assistant}}, llm.ErrProviderProtocol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flow := newFlow(t, llmtest.New(tc.reply))
			prev := order.State{Flavor: "vanilla"}
			resp, err := flow.Invoke(context.Background(), &Request{Prompt: "hi", CurrentState: &prev})
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, "vanilla", prev.Flavor)
		})
	}
}

func TestFlowCommands(t *testing.T) {
	fake := llmtest.Text(`{}`)
	manager := &recordingManager{}
	flow := newFlow(t, fake, WithCommandParser(command.NewLocalParser()), WithOrderManager(manager))

	full := completeOrder()
	resp, err := flow.Invoke(context.Background(), &Request{Prompt: "Start over", CurrentState: &full})
	require.NoError(t, err)
	assert.Equal(t, command.Reset, resp.Command)
	assert.True(t, resp.Data.IsEmpty())
	assert.Equal(t, dialogue.Greeting, resp.Reply)

	partial := order.State{CakeType: "birthday"}
	resp, err = flow.Invoke(context.Background(), &Request{Prompt: "confirm", CurrentState: &partial})
	require.NoError(t, err)
	assert.Equal(t, "Please complete your order before confirming. Still missing: flavor, size, layers, filling, icing, toppings, decor, allergies.", resp.Reply)
	assert.Empty(t, manager.placed)

	resp, err = flow.Invoke(context.Background(), &Request{Prompt: "place order", CurrentState: &full})
	require.NoError(t, err)
	assert.Equal(t, "Your cake order has been placed! Reference: ORD-1.", resp.Reply)
	assert.Equal(t, "ORD-1", resp.Reference)
	require.Len(t, manager.placed, 1)

	assert.Empty(t, fake.Calls())
}

func TestFlowPlaceOrderFailure(t *testing.T) {
	flow := newFlow(t, llmtest.Text(`{}`), WithCommandParser(command.NewLocalParser()), WithOrderManager(&recordingManager{err: errors.New("temporal down")}))
	full := completeOrder()
	_, err := flow.Invoke(context.Background(), &Request{Prompt: "submit", CurrentState: &full})
	require.Error(t, err)
}

type brokenGenerator struct{}

func (brokenGenerator) GenerateDialogue(ctx context.Context, req *dialogue.Request) (string, error) {
	return "", errors.New("rate limited")
}

func TestFlowDialogueFailureFallsBackToTemplate(t *testing.T) {
	flow := newFlow(t, llmtest.Text(`{"flavor":"lemon"}`), WithDialogueGenerator(brokenGenerator{}))
	resp, err := flow.Invoke(context.Background(), &Request{Prompt: "lemon"})
	require.NoError(t, err)
	assert.Equal(t, dialogue.Reply(resp.Data), resp.Reply)
}

func TestFlowApplyForm(t *testing.T) {
	flow := newFlow(t, llmtest.Text(`{}`))
	prev := order.State{CakeType: "birthday"}
	resp, err := flow.ApplyForm(context.Background(), &FormRequest{
		CurrentState: &prev,
		Ops:          []order.Operation{{Op: order.OpReplace, Path: "/layers", Value: "2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"none", "none"}, resp.Data.Decor)
	assert.Equal(t, dialogue.Reply(resp.Data), resp.Reply)

	_, err = flow.ApplyForm(context.Background(), &FormRequest{Ops: []order.Operation{{Op: order.OpReplace, Path: "/secret", Value: 1}}})
	require.Error(t, err)
}

func TestFlowCancellationDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := llmtest.New()
	fake.Block = true
	flow := newFlow(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	prev := order.State{Flavor: "vanilla"}
	resp, err := flow.Invoke(ctx, &Request{Prompt: "hi", CurrentState: &prev})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "vanilla", prev.Flavor)
}
