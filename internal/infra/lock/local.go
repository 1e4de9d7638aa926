package lock

import (
	"context"
	"sync"
)

// LocalProvider implements Provider with in-process mutexes. Suitable
// for a single instance; multi-instance deployments should use the
// Redis provider instead.
type LocalProvider struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	ch   chan struct{} // capacity 1, holding the slot means holding the lock
	refs int
}

type localToken struct {
	key string
}

func (t *localToken) Key() string { return t.key }

// NewLocalProvider creates an in-process lock provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{locks: make(map[string]*localEntry)}
}

// Acquire blocks until the lock for key is held or ctx is done.
func (p *LocalProvider) Acquire(ctx context.Context, key string) (Token, error) {
	p.mu.Lock()
	e, ok := p.locks[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		p.locks[key] = e
	}
	e.refs++
	p.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return &localToken{key: key}, nil
	case <-ctx.Done():
		p.unref(key, e)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrNotAcquired
		}
		return nil, ctx.Err()
	}
}

// Release releases a previously acquired token.
func (p *LocalProvider) Release(_ context.Context, tok Token) error {
	p.mu.Lock()
	e, ok := p.locks[tok.Key()]
	p.mu.Unlock()
	if !ok {
		return ErrNotHeld
	}
	select {
	case <-e.ch:
	default:
		return ErrNotHeld
	}
	p.unref(tok.Key(), e)
	return nil
}

func (p *LocalProvider) unref(key string, e *localEntry) {
	p.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(p.locks, key)
	}
	p.mu.Unlock()
}
