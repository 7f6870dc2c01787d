package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"
)

type ollamaChatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// OllamaChatModel adapts the Ollama chat API to an eino chat model.
type OllamaChatModel struct {
	client      ollamaChatter
	model       string
	temperature *float32
}

var _ model.BaseChatModel = (*OllamaChatModel)(nil)

func NewOllamaChatModel(client *api.Client, modelName string, temperature *float32) *OllamaChatModel {
	return &OllamaChatModel{
		client:      client,
		model:       strings.TrimPrefix(modelName, "ollama:"),
		temperature: temperature,
	}
}

func (m *OllamaChatModel) request(input []*schema.Message, opts ...model.Option) *api.ChatRequest {
	common := model.GetCommonOptions(&model.Options{Model: &m.model, Temperature: m.temperature}, opts...)
	messages := make([]api.Message, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		messages = append(messages, api.Message{Role: string(msg.Role), Content: msg.Content})
	}
	stream := false
	req := &api.ChatRequest{
		Model:    m.model,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]any{},
	}
	if common.Model != nil && *common.Model != "" {
		req.Model = *common.Model
	}
	if common.Temperature != nil {
		req.Options["temperature"] = *common.Temperature
	}
	if common.TopP != nil {
		req.Options["top_p"] = *common.TopP
	}
	if common.MaxTokens != nil {
		req.Options["num_predict"] = *common.MaxTokens
	}
	if len(common.Stop) > 0 {
		req.Options["stop"] = common.Stop
	}
	return req
}

func (m *OllamaChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req := m.request(input, opts...)
	var sb strings.Builder
	var done bool
	err := m.client.Chat(ctx, req, func(res api.ChatResponse) error {
		sb.WriteString(res.Message.Content)
		done = done || res.Done
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}
	if !done && sb.Len() == 0 {
		return nil, nil
	}
	return schema.AssistantMessage(sb.String(), nil), nil
}

func (m *OllamaChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: ollama returned no message", ErrProviderProtocol)
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
