package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get and GetDel when the key is absent or expired.
var ErrNotFound = errors.New("key not found")

// Store is a keyed TTL store with the per-key atomic operations the auth
// flows rely on: single-shot consume (GetDel) and counter increment (Incr).
type Store interface {
	// Set adds a key with a value and expiration time
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get retrieves a value by key
	Get(ctx context.Context, key string) (string, error)

	// GetDel retrieves a value and removes the key in one atomic step, so
	// that only one of several concurrent callers observes the value
	GetDel(ctx context.Context, key string) (string, error)

	// Incr atomically increments the counter at key, creating it with the
	// given TTL on first use, and returns the new count
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// TTL returns the remaining lifetime of a key, zero when absent
	TTL(ctx context.Context, key string) (time.Duration, error)
}
