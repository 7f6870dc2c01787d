// Package testcases runs the order flow against a real model. The tests are
// skipped unless CAKEAGENT_RUN_LIVE_TESTS=1; credentials come from
// ../cakeagent.yaml and the usual environment overrides.
package testcases

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/command"
	"github.com/tbxark/cakeagent/config"
	"github.com/tbxark/cakeagent/dialogue"
	"github.com/tbxark/cakeagent/llm"
)

type flowOptions struct {
	commandParser command.Parser
	llmDialogue   bool
	manager       agent.OrderManager
}

type FlowOption func(*flowOptions)

func WithCommandParser(parser command.Parser) FlowOption {
	return func(o *flowOptions) {
		o.commandParser = parser
	}
}

func WithLLMDialogue() FlowOption {
	return func(o *flowOptions) {
		o.llmDialogue = true
	}
}

func WithOrderManager(m agent.OrderManager) FlowOption {
	return func(o *flowOptions) {
		o.manager = m
	}
}

func InitChatModel(t *testing.T) (model.BaseChatModel, *config.Config) {
	if os.Getenv("CAKEAGENT_RUN_LIVE_TESTS") != "1" {
		t.Skip("set CAKEAGENT_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil, nil
	}

	ctx := context.Background()
	conf, err := config.Load("../cakeagent.yaml")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil, nil
	}
	if err := conf.Validate(); err != nil {
		t.Skipf("config is not usable: %v", err)
		return nil, nil
	}
	chatModel, err := llm.NewChatModel(ctx, llm.ProviderConfig{
		Provider: conf.LLM.Provider,
		APIKey:   conf.LLM.APIKey,
		Model:    conf.LLM.Model,
		BaseURL:  conf.LLM.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil, nil
	}
	t.Logf("using %s", describe(conf))
	return chatModel, conf
}

func NewTestFlow(t *testing.T, opts ...FlowOption) *agent.OrderFlow {
	chatModel, conf := InitChatModel(t)
	if chatModel == nil {
		return nil
	}

	o := &flowOptions{manager: agent.LogOrderManager{}}
	for _, opt := range opts {
		opt(o)
	}

	flowOpts := []agent.FlowOption{agent.WithOrderManager(o.manager)}
	if o.commandParser != nil {
		flowOpts = append(flowOpts, agent.WithCommandParser(o.commandParser))
	}
	if o.llmDialogue {
		toolModel, ok := chatModel.(model.ToolCallingChatModel)
		if !ok {
			t.Skipf("provider %s cannot call tools", conf.LLM.Provider)
		}
		gen, err := dialogue.NewToolBasedGenerator(toolModel)
		if err != nil {
			t.Fatalf("failed to create dialogue generator: %v", err)
		}
		flowOpts = append(flowOpts, agent.WithDialogueGenerator(dialogue.NewFailbackGenerator(gen, dialogue.LocalGenerator{})))
	}

	flow, err := agent.NewOrderFlow(llm.NewCollaborator(chatModel, llm.WithTimeout(conf.GetLLMTimeout())), flowOpts...)
	if err != nil {
		t.Fatalf("failed to create flow: %v", err)
	}
	return flow
}

func NewTestSessions(t *testing.T, opts ...FlowOption) *agent.Sessions {
	flow := NewTestFlow(t, opts...)
	if flow == nil {
		return nil
	}
	return agent.NewSessions(flow, agent.SessionConfig{HistoryLimit: 20})
}

func describe(c *config.Config) string {
	return fmt.Sprintf("Config{Provider:%q, BaseURL:%q, Model:%q}", c.LLM.Provider, c.LLM.BaseURL, c.LLM.Model)
}
