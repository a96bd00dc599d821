package ports

import (
	"context"

	"github.com/oxydem/authgate/core"
)

// UserDirectory is the external user record service. Password hashing and
// comparison happen behind this boundary.
type UserDirectory interface {
	// VerifyPassword returns the matching user, or core.ErrInvalidCredentials
	// for unknown email and wrong password alike
	VerifyPassword(ctx context.Context, email, password string) (*core.User, error)

	// FindByID returns the user or core.ErrUserNotFound
	FindByID(ctx context.Context, userID string) (*core.User, error)

	// SetTwoFactor stores the TOTP secret and the sealed recovery code set
	// together; the pair is never mutated one without the other
	SetTwoFactor(ctx context.Context, userID, totpSecret string, sealedCodes []byte) error

	// ClearTwoFactor removes the TOTP secret and the recovery code set together
	ClearTwoFactor(ctx context.Context, userID string) error

	// SetRecoveryCodes replaces the sealed recovery code set unconditionally
	SetRecoveryCodes(ctx context.Context, userID string, sealedCodes []byte) error

	// ReplaceRecoveryCodesIf swaps the sealed recovery code set only if the
	// stored value still equals old, reporting false on conflict
	ReplaceRecoveryCodesIf(ctx context.Context, userID string, old, updated []byte) (bool, error)
}
