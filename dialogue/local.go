package dialogue

import (
	"context"
	"fmt"
)

// LocalGenerator produces the fixed template replies and never fails.
type LocalGenerator struct{}

func (LocalGenerator) GenerateDialogue(ctx context.Context, req *Request) (string, error) {
	return Compose(req.Result), nil
}

type FailbackGenerator struct {
	generators []Generator
}

func NewFailbackGenerator(generators ...Generator) *FailbackGenerator {
	return &FailbackGenerator{generators: generators}
}

func (g *FailbackGenerator) GenerateDialogue(ctx context.Context, req *Request) (string, error) {
	lastErr := fmt.Errorf("no dialogue generators configured")
	for _, generator := range g.generators {
		message, err := generator.GenerateDialogue(ctx, req)
		if err == nil {
			return message, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("all dialogue generators failed: %w", lastErr)
}
