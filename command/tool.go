package command

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/cakeagent/structured"
)

const (
	parseCommandToolName        = "parse_command_intent"
	parseCommandToolDescription = "Analyze the customer's message and determine the command intent: reset, confirm, none."
)

type parseCommandInput struct {
	Intent Command `json:"intent" jsonschema:"required,enum=reset,enum=confirm,enum=none,description=The customer's command intent"`
}

// ToolBasedParser asks a chat model to classify the message. It catches
// phrasings keyword matching misses, such as "ok go ahead and bake it".
type ToolBasedParser struct {
	chain *structured.Chain[string, parseCommandInput]
}

// DefaultTimeout bounds one classification call.
const DefaultTimeout = 30 * time.Second

type ParserOption func(*ToolBasedParser)

// WithTimeout bounds each classification call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) ParserOption {
	return func(p *ToolBasedParser) {
		p.chain.Timeout = max(d, 0)
	}
}

func NewToolBasedParser(chatModel model.ToolCallingChatModel, opts ...ParserOption) (*ToolBasedParser, error) {
	chain, err := structured.NewChain[string, parseCommandInput](
		chatModel,
		buildParseCommandPrompt,
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	chain.Timeout = DefaultTimeout
	p := &ToolBasedParser{chain: chain}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func (p *ToolBasedParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	result, err := p.chain.Invoke(ctx, input)
	if err != nil {
		return None, err
	}
	switch result.Intent {
	case Reset, Confirm, None:
		return result.Intent, nil
	case "":
		return None, fmt.Errorf("empty intent returned by %s", parseCommandToolName)
	default:
		return None, fmt.Errorf("unknown intent %q returned by %s", result.Intent, parseCommandToolName)
	}
}

func buildParseCommandPrompt(ctx context.Context, input string) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`You are an assistant for a bakery ordering bot, helping to understand what the customer wants to do with their cake order.

Choose the most appropriate intent:
- reset: Only if the customer explicitly wants to throw away the current order and start over (e.g., "start over", "cancel", "forget it, new cake").
- confirm: Only if the customer explicitly wants to place or submit the current order (e.g., "confirm", "place my order", "yes, submit it"). Do not treat a general "yes" or "ok" as confirm.
- none: Anything else, including describing or changing the cake and asking questions.

Call the '%s' tool with the result.`, parseCommandToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(input),
	}, nil
}
