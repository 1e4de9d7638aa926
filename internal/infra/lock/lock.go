// Package lock provides exclusive locks keyed by gift certificate code.
// Ledger mutations require a token proving the caller holds the lock for
// the certificate being mutated.
package lock

import (
	"context"
	"errors"
)

var (
	// ErrNotAcquired is returned when the lock is held elsewhere and
	// could not be acquired before the context expired.
	ErrNotAcquired = errors.New("lock: not acquired")
	// ErrNotHeld is returned when releasing a token that no longer
	// holds its lock.
	ErrNotHeld = errors.New("lock: not held")
)

// Token is proof of an acquired lock. It is passed to ledger mutations
// and released by the acquirer when the critical section ends.
type Token interface {
	// Key returns the key this token locks.
	Key() string
}

// Provider hands out exclusive locks.
type Provider interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	Acquire(ctx context.Context, key string) (Token, error)
	// Release releases a previously acquired token.
	Release(ctx context.Context, tok Token) error
}
