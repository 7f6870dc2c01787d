package llm

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type ProviderConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float32
	Timeout     time.Duration
}

// NewChatModel builds the chat model for cfg.Provider. The OpenAI model also
// supports tool calling; check with a type assertion before using tools.
func NewChatModel(ctx context.Context, cfg ProviderConfig) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return cm, nil
	case ProviderOllama:
		var client *api.Client
		if cfg.BaseURL != "" {
			base, err := url.Parse(cfg.BaseURL)
			if err != nil {
				return nil, fmt.Errorf("parse ollama base url: %w", err)
			}
			client = api.NewClient(base, nil)
		} else {
			var err error
			client, err = api.ClientFromEnvironment()
			if err != nil {
				return nil, fmt.Errorf("could not create ollama client: %w", err)
			}
		}
		return NewOllamaChatModel(client, cfg.Model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
