package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tbxark/cakeagent/command"
	"github.com/tbxark/cakeagent/dialogue"
	"github.com/tbxark/cakeagent/extract"
	"github.com/tbxark/cakeagent/llm"
	"github.com/tbxark/cakeagent/order"
)

// Completer is the model collaborator as the flow sees it. llm.Collaborator
// implements it.
type Completer interface {
	Complete(ctx context.Context, instruction, userText string) (string, error)
}

// OrderFlow runs one conversation turn: instruction, model call, extraction,
// merge and reply. It holds no per-conversation state.
type OrderFlow struct {
	completer         Completer
	dialogueGenerator dialogue.Generator
	commandParser     command.Parser
	orderManager      OrderManager
}

type FlowOption func(*OrderFlow)

func WithDialogueGenerator(g dialogue.Generator) FlowOption {
	return func(f *OrderFlow) {
		f.dialogueGenerator = g
	}
}

// WithCommandParser enables command recognition. Without it every message
// goes to extraction.
func WithCommandParser(p command.Parser) FlowOption {
	return func(f *OrderFlow) {
		f.commandParser = p
	}
}

func WithOrderManager(m OrderManager) FlowOption {
	return func(f *OrderFlow) {
		f.orderManager = m
	}
}

func NewOrderFlow(completer Completer, opts ...FlowOption) (*OrderFlow, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	f := &OrderFlow{
		completer:         completer,
		dialogueGenerator: dialogue.LocalGenerator{},
		orderManager:      LogOrderManager{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Invoke runs a turn. Only llm.ErrProviderUnavailable, llm.ErrProviderProtocol
// and context errors are returned for the extraction path; the caller keeps
// its previous state on error.
func (f *OrderFlow) Invoke(ctx context.Context, input *Request) (*Response, error) {
	prev := currentState(input.CurrentState)

	if f.commandParser != nil {
		slog.Debug("Parsing command", "prompt", input.Prompt)
		cmd, err := f.commandParser.ParseCommand(ctx, input.Prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Debug("Command parsing failed, treating as order text", "error", err)
			cmd = command.None
		}
		if cmd != command.None {
			slog.Debug("Parsed command", "command", cmd)
			return f.handleCommand(ctx, cmd, prev)
		}
	}

	instruction := llm.BuildInstruction(prev)
	raw, err := f.completer.Complete(ctx, instruction, input.Prompt)
	if err != nil {
		return nil, err
	}

	result := extract.Extract(raw)
	if !result.Structured {
		slog.Debug("Model answered in text", "chars", len(result.Text))
		return f.respond(prev, prev, result.Text, false), nil
	}

	next, dropped := order.MergeReport(prev, result.Record)
	for _, d := range dropped {
		slog.Debug("Dropped out-of-vocabulary value", "field", d.Field, "value", d.Value)
	}
	slog.Debug("Merged order", "from_state", prev, "to_state", next)

	reply, err := f.generateDialogue(ctx, dialogue.NewRequest(next, input.Prompt, true))
	if err != nil {
		return nil, err
	}
	return f.respond(prev, next, reply, true), nil
}

// ApplyForm applies direct form edits and replies with the template
// follow-up. It never calls the model.
func (f *OrderFlow) ApplyForm(ctx context.Context, input *FormRequest) (*Response, error) {
	prev := currentState(input.CurrentState)
	next, err := order.ApplyPatch(prev, input.Ops)
	if err != nil {
		return nil, fmt.Errorf("failed to apply form edits: %w", err)
	}
	slog.Debug("Applied form edits", "ops", input.Ops, "to_state", next)
	return f.respond(prev, next, dialogue.Reply(next), true), nil
}

func (f *OrderFlow) handleCommand(ctx context.Context, cmd command.Command, prev order.State) (*Response, error) {
	switch cmd {
	case command.Reset:
		resp := f.respond(prev, order.State{}, dialogue.Greeting, true)
		resp.Command = cmd
		return resp, nil
	case command.Confirm:
		res := dialogue.Evaluate(prev)
		if !res.Complete() {
			resp := f.respond(prev, prev, fmt.Sprintf("Please complete your order before confirming. Still missing: %s.", strings.Join(res.Missing, ", ")), true)
			resp.Command = cmd
			return resp, nil
		}
		ref, err := f.orderManager.PlaceOrder(ctx, prev)
		if err != nil {
			return nil, fmt.Errorf("failed to place order: %w", err)
		}
		resp := f.respond(prev, prev, fmt.Sprintf("Your cake order has been placed! Reference: %s.", ref), true)
		resp.Command = cmd
		resp.Reference = ref
		return resp, nil
	default:
		return nil, fmt.Errorf("unsupported command %q", cmd)
	}
}

// generateDialogue falls back to the template reply when the configured
// generator fails, so a phrasing failure never fails the turn.
func (f *OrderFlow) generateDialogue(ctx context.Context, req *dialogue.Request) (string, error) {
	reply, err := f.dialogueGenerator.GenerateDialogue(ctx, req)
	if err == nil {
		return reply, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	slog.Warn("Dialogue generation failed, using template reply", "error", err)
	return dialogue.Compose(req.Result), nil
}

func (f *OrderFlow) respond(prev, next order.State, reply string, structured bool) *Response {
	res := dialogue.Evaluate(next)
	return &Response{
		Data:       next,
		Reply:      reply,
		Structured: structured,
		Complete:   res.Complete(),
		Missing:    res.Missing,
		Changes:    order.Diff(prev, next),
		Quote:      order.PriceQuote(next),
	}
}

func currentState(s *order.State) order.State {
	if s == nil {
		return order.State{}
	}
	return order.Merge(*s, order.Record{})
}
