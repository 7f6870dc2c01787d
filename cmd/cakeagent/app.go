package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/command"
	"github.com/tbxark/cakeagent/config"
	"github.com/tbxark/cakeagent/dialogue"
	"github.com/tbxark/cakeagent/llm"
)

func newChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	return llm.NewChatModel(ctx, llm.ProviderConfig{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.GetLLMTimeout(),
	})
}

// buildFlow wires the order flow. LLM phrasing and LLM command parsing need
// a tool calling model and fall back to the keyword and template versions.
func buildFlow(cfg *config.Config, cm model.BaseChatModel, manager agent.OrderManager) (*agent.OrderFlow, error) {
	toolModel, _ := cm.(model.ToolCallingChatModel)

	var generators []dialogue.Generator
	if cfg.Dialogue.Style == "llm" {
		if toolModel == nil {
			slog.Warn("Chat model cannot call tools, using template replies", "provider", cfg.LLM.Provider)
		} else {
			g, err := dialogue.NewToolBasedGenerator(toolModel,
				dialogue.WithLang(cfg.Dialogue.Lang),
				dialogue.WithTimeout(cfg.GetLLMTimeout()),
			)
			if err != nil {
				return nil, fmt.Errorf("create dialogue generator: %w", err)
			}
			generators = append(generators, g)
		}
	}
	generators = append(generators, dialogue.LocalGenerator{})

	opts := []agent.FlowOption{
		agent.WithDialogueGenerator(dialogue.NewFailbackGenerator(generators...)),
		agent.WithOrderManager(manager),
	}

	switch cfg.Dialogue.Commands {
	case "keyword":
		opts = append(opts, agent.WithCommandParser(command.NewLocalParser()))
	case "llm":
		parsers := []command.Parser{}
		if toolModel != nil {
			p, err := command.NewToolBasedParser(toolModel, command.WithTimeout(cfg.GetLLMTimeout()))
			if err != nil {
				return nil, fmt.Errorf("create command parser: %w", err)
			}
			parsers = append(parsers, p)
		}
		parsers = append(parsers, command.NewLocalParser())
		opts = append(opts, agent.WithCommandParser(command.NewFailbackParser(parsers...)))
	}

	collaborator := llm.NewCollaborator(cm, llm.WithTimeout(cfg.GetLLMTimeout()))
	return agent.NewOrderFlow(collaborator, opts...)
}

func buildSessions(cfg *config.Config, flow *agent.OrderFlow) *agent.Sessions {
	return agent.NewSessions(flow, agent.SessionConfig{
		HistoryLimit:  cfg.Session.HistoryLimit,
		MaxConcurrent: int64(cfg.Session.MaxConcurrent),
		TTL:           cfg.GetSessionTTL(),
	})
}

func dialTemporal(cfg *config.Config) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return c, nil
}
