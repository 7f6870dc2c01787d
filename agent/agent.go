// Package agent coordinates cake order turns: it runs the extraction flow,
// keeps per-session state and exposes the flow as an eino adk agent.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

const defaultSessionKey = "default"

// Agent runs the last input message as a turn of the session named by the
// context key. Provider failures become the apology reply, not an event error.
type Agent struct {
	name        string
	description string
	sessions    *Sessions
}

func NewAgent(name, description string, sessions *Sessions) *Agent {
	return &Agent{
		name:        name,
		description: description,
		sessions:    sessions,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if input == nil || len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{
				Err: errors.New("no messages in input"),
			})
			return
		}
		key, ok := SessionKeyFromContext(ctx)
		if !ok {
			key = defaultSessionKey
		}
		reply := UserFacingError
		resp, err := a.sessions.Turn(ctx, key, &Request{
			Prompt: input.Messages[len(input.Messages)-1].Content,
		})
		switch {
		case err == nil:
			reply = resp.Reply
		case ctx.Err() != nil:
			gen.Send(&adk.AgentEvent{Err: ctx.Err()})
			return
		default:
			slog.Error("Turn failed", "session", key, "error", err)
		}
		gen.Send(&adk.AgentEvent{
			AgentName: a.name,
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message:     schema.AssistantMessage(reply, nil),
					Role:        schema.Assistant,
				},
			},
		})
	}()
	return iter
}
