package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oxydem/authgate/core"
	"github.com/oxydem/authgate/ports"
)

const (
	// DefaultPendingSessionTTL is how long a login may wait for its
	// second factor
	DefaultPendingSessionTTL = 10 * time.Minute

	pendingKeyPrefix  = "pending:"
	pendingHandleSize = 16
)

type pendingRecord struct {
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// PendingSessionStore binds short-lived handles to users awaiting
// second-factor proof. The raw handle never leaves the process; clients
// receive and return it in sealed form only.
type PendingSessionStore struct {
	store  ports.Store
	sealer *Sealer
	ttl    time.Duration
}

// NewPendingSessionStore creates a pending-session store over the given
// keyed store
func NewPendingSessionStore(store ports.Store, sealer *Sealer, ttl time.Duration) *PendingSessionStore {
	if ttl <= 0 {
		ttl = DefaultPendingSessionTTL
	}
	return &PendingSessionStore{
		store:  store,
		sealer: sealer,
		ttl:    ttl,
	}
}

// Create binds a fresh handle to the user and returns its sealed form
func (p *PendingSessionStore) Create(ctx context.Context, userID string) (string, error) {
	raw := make([]byte, pendingHandleSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session handle: %w", err)
	}
	handle := hex.EncodeToString(raw)

	now := time.Now()
	payload, err := json.Marshal(pendingRecord{
		UserID:    userID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(p.ttl).Unix(),
	})
	if err != nil {
		return "", err
	}

	if err := p.store.Set(ctx, pendingKeyPrefix+handle, string(payload), p.ttl); err != nil {
		return "", fmt.Errorf("failed to store pending session: %w", err)
	}

	return p.sealer.Seal(handle)
}

// Resolve returns the session bound to a sealed handle without consuming
// it. Tampered, forged, consumed and expired handles all collapse to
// core.ErrInvalidOrExpiredSession.
func (p *PendingSessionStore) Resolve(ctx context.Context, sealedHandle string) (*core.PendingSession, error) {
	return p.load(ctx, sealedHandle, false)
}

// Consume removes the handle and returns the bound session. The removal
// is atomic, so only one of several concurrent consumers succeeds; every
// later call fails with core.ErrInvalidOrExpiredSession.
func (p *PendingSessionStore) Consume(ctx context.Context, sealedHandle string) (*core.PendingSession, error) {
	return p.load(ctx, sealedHandle, true)
}

func (p *PendingSessionStore) load(ctx context.Context, sealedHandle string, consume bool) (*core.PendingSession, error) {
	handle, err := p.sealer.Open(sealedHandle)
	if err != nil {
		return nil, core.ErrInvalidOrExpiredSession
	}

	var value string
	if consume {
		value, err = p.store.GetDel(ctx, pendingKeyPrefix+handle)
	} else {
		value, err = p.store.Get(ctx, pendingKeyPrefix+handle)
	}
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, core.ErrInvalidOrExpiredSession
		}
		return nil, fmt.Errorf("failed to load pending session: %w", err)
	}

	var record pendingRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, core.ErrInvalidOrExpiredSession
	}

	// The store enforces the TTL; this guards against a store without one
	if time.Now().Unix() > record.ExpiresAt {
		return nil, core.ErrInvalidOrExpiredSession
	}

	return &core.PendingSession{
		Handle:    handle,
		UserID:    record.UserID,
		CreatedAt: time.Unix(record.CreatedAt, 0),
		ExpiresAt: time.Unix(record.ExpiresAt, 0),
	}, nil
}
