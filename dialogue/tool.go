package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/cakeagent/structured"
)

// DefaultTimeout bounds one phrasing call.
const DefaultTimeout = 30 * time.Second

const (
	composeReplyToolName        = "compose_reply"
	composeReplyToolDescription = "Return the next assistant message for the cake order conversation."
)

// DefaultSystemPromptTemplate may contain a single "%s" placeholder for the language.
const DefaultSystemPromptTemplate = `You are a friendly bakery assistant helping a customer configure a cake order.

Write the next message of the conversation:
- Briefly acknowledge what has already been noted.
- Ask for the missing fields, mentioning the available options. Do not ask for anything not listed as missing.
- Keep it to one or two sentences. No lists, no markdown.
- Reply in %s.

Call the '` + composeReplyToolName + `' tool with the message.`

// ToolBasedGenerator rephrases follow-up questions with a chat model. The
// greeting and the completion acknowledgement stay fixed.
type ToolBasedGenerator struct {
	Lang                 string
	systemPrompt         string
	systemPromptTemplate string
	chain                *structured.Chain[*Request, NextTurnPlan]
}

type generatorOptions struct {
	lang                 string
	systemPrompt         string
	systemPromptTemplate string
	timeout              time.Duration
}

type GeneratorOption func(*generatorOptions)

func WithLang(lang string) GeneratorOption {
	return func(o *generatorOptions) {
		o.lang = lang
	}
}

// WithTimeout bounds each phrasing call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(o *generatorOptions) {
		o.timeout = d
	}
}

func WithSystemPrompt(systemPrompt string) GeneratorOption {
	return func(o *generatorOptions) {
		o.systemPrompt = systemPrompt
	}
}

func WithSystemPromptTemplate(systemPromptTemplate string) GeneratorOption {
	return func(o *generatorOptions) {
		o.systemPromptTemplate = systemPromptTemplate
	}
}

func NewToolBasedGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) (*ToolBasedGenerator, error) {
	options := generatorOptions{
		lang:                 "English",
		systemPromptTemplate: DefaultSystemPromptTemplate,
		timeout:              DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.lang == "" {
		options.lang = "English"
	}
	g := &ToolBasedGenerator{
		Lang:                 options.lang,
		systemPrompt:         options.systemPrompt,
		systemPromptTemplate: options.systemPromptTemplate,
	}
	chain, err := structured.NewChain[*Request, NextTurnPlan](chatModel, g.buildPrompt, composeReplyToolName, composeReplyToolDescription)
	if err != nil {
		return nil, err
	}
	chain.Timeout = max(options.timeout, 0)
	g.chain = chain
	return g, nil
}

func (g *ToolBasedGenerator) GenerateDialogue(ctx context.Context, req *Request) (string, error) {
	if len(req.Result.Filled) == 0 || req.Result.Complete() {
		return Compose(req.Result), nil
	}
	plan, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	message := strings.TrimSpace(plan.Message)
	if message == "" {
		return "", fmt.Errorf("empty message returned by %s", composeReplyToolName)
	}
	return message, nil
}

func (g *ToolBasedGenerator) buildPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	systemPrompt := g.systemPrompt
	if systemPrompt == "" {
		tpl := g.systemPromptTemplate
		if tpl == "" {
			tpl = DefaultSystemPromptTemplate
		}
		if strings.Contains(tpl, "%s") {
			systemPrompt = fmt.Sprintf(tpl, g.Lang)
		} else {
			systemPrompt = tpl
		}
	}
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(formatRequest(req)),
	}, nil
}
