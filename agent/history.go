package agent

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type Trimmer interface {
	Trim(history []*schema.Message) []*schema.Message
}

// KeepSystemLastNTrimmer keeps all system messages and the last N non-system messages.
// When N <= 0, it keeps only system messages.
type KeepSystemLastNTrimmer struct {
	N int
}

func (t KeepSystemLastNTrimmer) Trim(history []*schema.Message) []*schema.Message {
	nonSystem := 0
	for _, m := range history {
		if m != nil && m.Role != schema.System {
			nonSystem++
		}
	}
	skip := nonSystem - max(t.N, 0)
	if skip <= 0 {
		return history
	}
	out := make([]*schema.Message, 0, len(history)-skip)
	for _, m := range history {
		if m == nil {
			continue
		}
		if m.Role != schema.System && skip > 0 {
			skip--
			continue
		}
		out = append(out, m)
	}
	return out
}

// HistoryStore keeps the chat transcript per session. The transcript is for
// display and the terminal agent; it never feeds extraction.
type HistoryStore struct {
	store   Store[[]*schema.Message]
	trimmer Trimmer
}

func NewHistoryStore(core Cache[[]*schema.Message], trimmer Trimmer) *HistoryStore {
	return &HistoryStore{
		store:   NewStore(core, "agent:history", SessionKeyFromContext),
		trimmer: trimmer,
	}
}

func (s *HistoryStore) Load(ctx context.Context) ([]*schema.Message, error) {
	hist, ok, err := s.store.Get(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return hist, nil
}

func (s *HistoryStore) Save(ctx context.Context, history []*schema.Message) error {
	history = normalizeHistory(history)
	if s.trimmer != nil {
		history = s.trimmer.Trim(history)
	}
	return s.store.Set(ctx, history)
}

func (s *HistoryStore) Clear(ctx context.Context) error {
	return s.store.Del(ctx)
}

// Append loads history, appends msgs skipping immediate repeats, trims, then saves.
func (s *HistoryStore) Append(ctx context.Context, msgs ...*schema.Message) ([]*schema.Message, error) {
	hist, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*schema.Message, len(hist), len(hist)+len(msgs))
	copy(out, hist)
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == msg.Role && out[n-1].Content == msg.Content {
			continue
		}
		out = append(out, msg)
	}
	if err := s.Save(ctx, out); err != nil {
		return nil, err
	}
	return s.Load(ctx)
}

func normalizeHistory(history []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
