package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/oxydem/authgate/ports"
)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-memory implementation of the Store interface.
// Expired entries are dropped lazily on access; a single mutex gives the
// per-key atomicity GetDel and Incr require.
type MemoryStore struct {
	entries map[string]entry
	mu      sync.Mutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
	}
}

// Set stores a key with a value and expiration time
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Get retrieves a value by key
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	if e.expired(time.Now()) {
		delete(s.entries, key)
		return "", ports.ErrNotFound
	}
	return e.value, nil
}

// GetDel retrieves a value and removes the key in one step
func (s *MemoryStore) GetDel(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	delete(s.entries, key)
	if e.expired(time.Now()) {
		return "", ports.ErrNotFound
	}
	return e.value, nil
}

// Incr increments the counter at key, creating it with the given TTL on
// first use
func (s *MemoryStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		e = entry{value: "1"}
		if ttl > 0 {
			e.expiresAt = now.Add(ttl)
		}
		s.entries[key] = e
		return 1, nil
	}

	count, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, err
	}
	count++
	e.value = strconv.FormatInt(count, 10)
	s.entries[key] = e
	return count, nil
}

// TTL returns the remaining lifetime of a key, zero when absent or unbounded
func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		return 0, nil
	}
	if e.expiresAt.IsZero() {
		return 0, nil
	}
	return e.expiresAt.Sub(now), nil
}
