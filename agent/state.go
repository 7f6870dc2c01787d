package agent

import (
	"context"

	"github.com/tbxark/cakeagent/order"
)

type sessionKeyContext struct{}

// WithSessionKey sets the routing key for session storage in the context.
func WithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, key)
}

// SessionKeyFromContext gets the routing key from the context.
func SessionKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(sessionKeyContext{}).(string)
	return key, ok && key != ""
}

// StateStore keeps the accumulated order per session.
type StateStore struct {
	store Store[order.State]
}

func NewStateStore(core Cache[order.State]) *StateStore {
	return &StateStore{store: NewStore(core, "agent:state", SessionKeyFromContext)}
}

// Load returns the stored state, or an empty one for a new session.
func (s *StateStore) Load(ctx context.Context) (order.State, bool, error) {
	st, ok, err := s.store.Get(ctx)
	if err != nil || !ok {
		return order.State{}, false, err
	}
	return st.Clone(), true, nil
}

func (s *StateStore) Save(ctx context.Context, st order.State) error {
	return s.store.Set(ctx, st.Clone())
}

func (s *StateStore) Clear(ctx context.Context) error {
	return s.store.Del(ctx)
}
