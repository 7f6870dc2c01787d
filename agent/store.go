package agent

import (
	"context"
	"errors"
)

var ErrNoSessionKey = errors.New("session key not found in context")

// Store scopes a Cache to a namespace and reads the key from the context.
type Store[S any] struct {
	core      Cache[S]
	namespace string
	keyFn     func(ctx context.Context) (string, bool)
}

func NewStore[S any](core Cache[S], namespace string, keyFn func(ctx context.Context) (string, bool)) Store[S] {
	return Store[S]{
		core:      core,
		namespace: namespace,
		keyFn:     keyFn,
	}
}

func (c Store[S]) key(ctx context.Context) (string, error) {
	key, exist := c.keyFn(ctx)
	if !exist || key == "" {
		return "", ErrNoSessionKey
	}
	return c.namespace + ":" + key, nil
}

func (c Store[S]) Set(ctx context.Context, val S) error {
	key, err := c.key(ctx)
	if err != nil {
		return err
	}
	return c.core.Set(ctx, key, val)
}

func (c Store[S]) Get(ctx context.Context) (S, bool, error) {
	key, err := c.key(ctx)
	if err != nil {
		var zero S
		return zero, false, err
	}
	return c.core.Get(ctx, key)
}

func (c Store[S]) Del(ctx context.Context) error {
	key, err := c.key(ctx)
	if err != nil {
		return err
	}
	return c.core.Del(ctx, key)
}

func (c Store[S]) Exists(ctx context.Context) (bool, error) {
	key, err := c.key(ctx)
	if err != nil {
		return false, err
	}
	return c.core.Exists(ctx, key)
}
