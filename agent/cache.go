package agent

import (
	"context"
	"sync"
	"time"
)

type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type memoryEntry[S any] struct {
	val     S
	expires time.Time
}

// MemoryCache is an in-process Cache. With a positive ttl, entries expire
// that long after their last Set.
type MemoryCache[S any] struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry[S]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryCache[S any](ttl time.Duration) *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]memoryEntry[S]{}, ttl: ttl, now: time.Now}
}

func (m *MemoryCache[S]) live(e memoryEntry[S]) bool {
	return e.expires.IsZero() || m.now().Before(e.expires)
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	e := memoryEntry[S]{val: val}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.m[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	e, ok := m.m[key]
	m.mu.RUnlock()
	if !ok || !m.live(e) {
		var zero S
		return zero, false, nil
	}
	return e.val, true, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

// Sweep drops expired entries and reports how many were removed.
func (m *MemoryCache[S]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.m {
		if !m.live(e) {
			delete(m.m, k)
			removed++
		}
	}
	return removed
}
