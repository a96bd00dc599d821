package ports

import (
	"context"

	"github.com/oxydem/authgate/core"
)

// TokenIssuer produces and validates opaque bearer credentials. The service
// seals issued tokens before they leave the process, so the raw credential
// never reaches a client.
type TokenIssuer interface {
	// Issue creates a bearer token for an authenticated user
	Issue(ctx context.Context, user *core.User) (string, error)

	// Validate checks a bearer token and returns the user it was issued to
	Validate(ctx context.Context, token string) (userID string, err error)
}
