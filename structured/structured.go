// Package structured gets typed answers out of a chat model by forcing it to
// call a single tool whose parameters are the output struct.
package structured

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

var ErrNoToolCall = errors.New("no tool call in model response")

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
	// Timeout bounds each Invoke call. Zero leaves it to the caller's context.
	Timeout time.Duration
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}, nil
}

func (c *Chain[TInput, TOutput]) options() []model.Option {
	return []model.Option{
		model.WithTools([]*schema.ToolInfo{c.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, c.ToolInfo.Name),
	}
}

func (c *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	messages, err := c.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}
	response, err := c.ChatModel.Generate(ctx, messages, c.options()...)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	return c.decode(response)
}

// Stream converts every streamed chunk. Timeout does not apply; the
// caller's context bounds the stream. Providers that split tool call
// arguments across chunks should be used through Invoke.
func (c *Chain[TInput, TOutput]) Stream(ctx context.Context, input TInput) (*schema.StreamReader[*TOutput], error) {
	messages, err := c.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}
	stream, err := c.ChatModel.Stream(ctx, messages, c.options()...)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	return schema.StreamReaderWithConvert(stream, c.decode), nil
}

func (c *Chain[TInput, TOutput]) decode(msg *schema.Message) (*TOutput, error) {
	if msg == nil {
		return nil, ErrNoToolCall
	}
	for _, call := range msg.ToolCalls {
		if call.Function.Name != "" && call.Function.Name != c.ToolInfo.Name {
			continue
		}
		var result TOutput
		if err := sonic.UnmarshalString(call.Function.Arguments, &result); err != nil {
			return nil, fmt.Errorf("parse %s arguments failed: %w", c.ToolInfo.Name, err)
		}
		return &result, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoToolCall, msg.Content)
}

func (c *Chain[TInput, TOutput]) GetToolInfo() *schema.ToolInfo {
	return c.ToolInfo
}
