package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oxydem/authgate/core"
	"github.com/oxydem/authgate/ports"
)

const (
	// DefaultMaxAttempts is the attempt budget within one window
	DefaultMaxAttempts = 5

	// DefaultAttemptWindow is the fixed decay window for login attempts
	DefaultAttemptWindow = time.Minute

	rateLimitKeyPrefix = "ratelimit:"
)

// RateLimiter enforces a fixed-window attempt budget per client key.
// Counters only ever grow within a window; a successful login does not
// refund attempts.
type RateLimiter struct {
	store  ports.Store
	max    int64
	window time.Duration
}

// NewRateLimiter creates a rate limiter over the given keyed store
func NewRateLimiter(store ports.Store, maxAttempts int, window time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultAttemptWindow
	}
	return &RateLimiter{
		store:  store,
		max:    int64(maxAttempts),
		window: window,
	}
}

// Attempt reports whether another attempt is allowed for the client key.
// When the budget is exhausted it returns a core.RateLimitError carrying
// the time until the window resets.
func (l *RateLimiter) Attempt(ctx context.Context, clientKey string) error {
	value, err := l.store.Get(ctx, rateLimitKeyPrefix+clientKey)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read attempt counter: %w", err)
	}

	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("corrupt attempt counter: %w", err)
	}
	if count < l.max {
		return nil
	}

	retryAfter, err := l.store.TTL(ctx, rateLimitKeyPrefix+clientKey)
	if err != nil {
		return fmt.Errorf("failed to read attempt window: %w", err)
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &core.RateLimitError{RetryAfter: retryAfter}
}

// Hit records an attempt regardless of its outcome
func (l *RateLimiter) Hit(ctx context.Context, clientKey string) error {
	if _, err := l.store.Incr(ctx, rateLimitKeyPrefix+clientKey, l.window); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}
