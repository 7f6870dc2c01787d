// Package llmtest provides a scripted chat model for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reply is one scripted answer. A nil Message with a nil Err is returned as
// is. A Block reply waits for the context to be done.
type Reply struct {
	Message *schema.Message
	Err     error
	Block   bool
}

// FakeChatModel answers Generate calls from a script, repeating the last
// reply once the script is exhausted. When Block is set, Generate waits for
// the context to be done instead.
type FakeChatModel struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]*schema.Message
	tools   []*schema.ToolInfo
	Block   bool
}

var _ model.ToolCallingChatModel = (*FakeChatModel)(nil)

func New(replies ...Reply) *FakeChatModel {
	return &FakeChatModel{replies: replies}
}

// Text scripts plain assistant replies.
func Text(contents ...string) *FakeChatModel {
	replies := make([]Reply, 0, len(contents))
	for _, c := range contents {
		replies = append(replies, Reply{Message: schema.AssistantMessage(c, nil)})
	}
	return New(replies...)
}

// Hang is a reply that never arrives before the context is done.
func Hang() Reply {
	return Reply{Block: true}
}

// ToolCall builds an assistant message calling name with the given JSON arguments.
func ToolCall(name, arguments string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_1",
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: arguments},
	}})
}

func (m *FakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	block := m.Block
	var reply Reply
	if len(m.replies) > 0 {
		reply = m.replies[0]
		if len(m.replies) > 1 {
			m.replies = m.replies[1:]
		}
	}
	m.mu.Unlock()

	if block || reply.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reply.Message, reply.Err
}

func (m *FakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *FakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	m.tools = tools
	m.mu.Unlock()
	return m, nil
}

// Calls returns the inputs of every Generate call so far.
func (m *FakeChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}
