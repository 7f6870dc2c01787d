package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/semaphore"

	"github.com/tbxark/cakeagent/command"
	"github.com/tbxark/cakeagent/order"
)

type SessionConfig struct {
	HistoryLimit  int
	MaxConcurrent int64
	TTL           time.Duration
}

// Sessions threads order state through turns for callers that do not hold
// it themselves. Turns of one session run one at a time; MaxConcurrent
// bounds turns across all sessions.
type Sessions struct {
	flow    *OrderFlow
	states  *StateStore
	history *HistoryStore
	locker  *KeyedLocker
	sem     *semaphore.Weighted

	stateCache   *MemoryCache[order.State]
	historyCache *MemoryCache[[]*schema.Message]
}

type Snapshot struct {
	ID      string            `json:"id"`
	State   order.State       `json:"state"`
	History []*schema.Message `json:"history"`
	Summary string            `json:"summary"`
}

func NewSessions(flow *OrderFlow, cfg SessionConfig) *Sessions {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	stateCache := NewMemoryCache[order.State](cfg.TTL)
	historyCache := NewMemoryCache[[]*schema.Message](cfg.TTL)
	return &Sessions{
		flow:         flow,
		states:       NewStateStore(stateCache),
		history:      NewHistoryStore(historyCache, KeepSystemLastNTrimmer{N: cfg.HistoryLimit}),
		locker:       NewKeyedLocker(),
		sem:          semaphore.NewWeighted(cfg.MaxConcurrent),
		stateCache:   stateCache,
		historyCache: historyCache,
	}
}

// Turn runs one chat turn for session id. A CurrentState in req wins over
// the stored state. On error the stored state is left as it was.
func (s *Sessions) Turn(ctx context.Context, id string, req *Request) (*Response, error) {
	ctx = WithSessionKey(ctx, id)
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	turn := *req
	if turn.CurrentState == nil {
		st, ok, err := s.states.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load session state: %w", err)
		}
		if ok {
			turn.CurrentState = &st
		}
	}

	resp, err := s.flow.Invoke(ctx, &turn)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, resp, schema.UserMessage(req.Prompt)); err != nil {
		return nil, err
	}
	return resp, nil
}

// ApplyForm applies form edits for session id.
func (s *Sessions) ApplyForm(ctx context.Context, id string, req *FormRequest) (*Response, error) {
	ctx = WithSessionKey(ctx, id)
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	edit := *req
	if edit.CurrentState == nil {
		st, _, err := s.states.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load session state: %w", err)
		}
		edit.CurrentState = &st
	}
	resp, err := s.flow.ApplyForm(ctx, &edit)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, resp, nil); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Sessions) commit(ctx context.Context, resp *Response, userMsg *schema.Message) error {
	if resp.Command == command.Reset {
		if err := s.history.Clear(ctx); err != nil {
			return fmt.Errorf("clear session history: %w", err)
		}
	} else if userMsg != nil {
		if _, err := s.history.Append(ctx, userMsg, schema.AssistantMessage(resp.Reply, nil)); err != nil {
			return fmt.Errorf("save session history: %w", err)
		}
	}
	if err := s.states.Save(ctx, resp.Data); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func (s *Sessions) Get(ctx context.Context, id string) (*Snapshot, bool, error) {
	ctx = WithSessionKey(ctx, id)
	st, ok, err := s.states.Load(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	hist, err := s.history.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	return &Snapshot{ID: id, State: st, History: hist, Summary: order.Summary(st)}, true, nil
}

func (s *Sessions) Delete(ctx context.Context, id string) error {
	ctx = WithSessionKey(ctx, id)
	if err := s.states.Clear(ctx); err != nil {
		return err
	}
	return s.history.Clear(ctx)
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.stateCache.Sweep() + s.historyCache.Sweep(); n > 0 {
				slog.Debug("Swept expired sessions", "entries", n)
			}
		}
	}
}
