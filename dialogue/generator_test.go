package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/cakeagent/llm/llmtest"
	"github.com/tbxark/cakeagent/order"
)

type failingGenerator struct{}

func (failingGenerator) GenerateDialogue(ctx context.Context, req *Request) (string, error) {
	return "", errors.New("boom")
}

func partialRequest() *Request {
	return NewRequest(order.State{CakeType: "birthday", Flavor: "lemon"}, "a lemon birthday cake", true)
}

func TestLocalGenerator(t *testing.T) {
	req := partialRequest()
	msg, err := LocalGenerator{}.GenerateDialogue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Compose(req.Result), msg)
}

func TestFailbackGeneratorFallsThrough(t *testing.T) {
	req := partialRequest()
	g := NewFailbackGenerator(failingGenerator{}, LocalGenerator{})
	msg, err := g.GenerateDialogue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Compose(req.Result), msg)

	_, err = NewFailbackGenerator(failingGenerator{}).GenerateDialogue(context.Background(), req)
	require.Error(t, err)
}

func TestToolBasedGeneratorRephrasesFollowUp(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Message: llmtest.ToolCall(composeReplyToolName, `{"message":"A lemon birthday cake, lovely! What size would you like?"}`)})
	g, err := NewToolBasedGenerator(fake)
	require.NoError(t, err)

	msg, err := g.GenerateDialogue(context.Background(), partialRequest())
	require.NoError(t, err)
	assert.Equal(t, "A lemon birthday cake, lovely! What size would you like?", msg)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][0].Content, "English")
	assert.Contains(t, calls[0][1].Content, "# Missing fields:")
	assert.Contains(t, calls[0][1].Content, "a lemon birthday cake")
}

func TestToolBasedGeneratorKeepsFixedTexts(t *testing.T) {
	fake := llmtest.Text("unused")
	g, err := NewToolBasedGenerator(fake)
	require.NoError(t, err)

	msg, err := g.GenerateDialogue(context.Background(), NewRequest(order.State{}, "", false))
	require.NoError(t, err)
	assert.Equal(t, Greeting, msg)
	assert.Empty(t, fake.Calls())
}

func TestToolBasedGeneratorFailsOverToLocal(t *testing.T) {
	fake := llmtest.Text("no tool call here")
	tool, err := NewToolBasedGenerator(fake)
	require.NoError(t, err)

	req := partialRequest()
	msg, err := NewFailbackGenerator(tool, LocalGenerator{}).GenerateDialogue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Compose(req.Result), msg)
}

func TestToolBasedGeneratorTimeoutFailsOverToLocal(t *testing.T) {
	fake := llmtest.New(llmtest.Hang())
	tool, err := NewToolBasedGenerator(fake, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	req := partialRequest()
	started := time.Now()
	msg, err := NewFailbackGenerator(tool, LocalGenerator{}).GenerateDialogue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Compose(req.Result), msg)
	assert.Less(t, time.Since(started), 2*time.Second)
}
