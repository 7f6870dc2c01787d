package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const DefaultTimeout = 30 * time.Second

// Collaborator sends one (instruction, user text) pair to a chat model and
// returns the raw completion text.
type Collaborator struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
	opts      []model.Option
}

type CollaboratorOption func(*Collaborator)

// WithTimeout bounds each call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) CollaboratorOption {
	return func(c *Collaborator) {
		c.timeout = d
	}
}

func WithModelOptions(opts ...model.Option) CollaboratorOption {
	return func(c *Collaborator) {
		c.opts = append(c.opts, opts...)
	}
}

func NewCollaborator(chatModel model.BaseChatModel, opts ...CollaboratorOption) *Collaborator {
	c := &Collaborator{chatModel: chatModel, timeout: DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Complete returns the completion text. Failures wrap ErrProviderUnavailable
// or ErrProviderProtocol; a cancelled ctx returns ctx.Err() unwrapped.
func (c *Collaborator) Complete(ctx context.Context, instruction, userText string) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	msg, err := c.chatModel.Generate(callCtx, []*schema.Message{
		schema.SystemMessage(instruction),
		schema.UserMessage(userText),
	}, c.opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: no message in response", ErrProviderProtocol)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: empty completion content", ErrProviderProtocol)
	}
	slog.Debug("Collaborator replied", "elapsed", time.Since(started), "chars", len(msg.Content))
	return msg.Content, nil
}
