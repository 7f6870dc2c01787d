package command

import (
	"context"
	"strings"
)

// LocalParser matches the whole message against keyword lists after trimming
// and lowercasing.
type LocalParser struct {
	ResetKeywords   []string
	ConfirmKeywords []string
}

func NewLocalParser() *LocalParser {
	return &LocalParser{
		ResetKeywords:   []string{"reset", "start over", "cancel"},
		ConfirmKeywords: []string{"confirm", "submit", "place order"},
	}
}

func (p *LocalParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	for _, keyword := range p.ResetKeywords {
		if normalized == keyword {
			return Reset, nil
		}
	}
	for _, keyword := range p.ConfirmKeywords {
		if normalized == keyword {
			return Confirm, nil
		}
	}
	return None, nil
}

type FailbackParser struct {
	parsers []Parser
}

func NewFailbackParser(parsers ...Parser) *FailbackParser {
	return &FailbackParser{parsers: parsers}
}

func (p *FailbackParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, input)
		if err == nil {
			return cmd, nil
		}
		lastErr = err
	}
	return None, lastErr
}
