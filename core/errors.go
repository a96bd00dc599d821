package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must not be able to tell the two apart
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidOrExpiredSession is returned for tampered, forged, consumed
	// and expired pending-session handles alike
	ErrInvalidOrExpiredSession = errors.New("invalid or expired session")

	// ErrTwoFactorNotEnabled is returned when a 2FA operation targets a user
	// without an enrolled secret
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")

	// ErrInvalidCode is returned when a TOTP code fails verification
	ErrInvalidCode = errors.New("invalid two-factor code")

	// ErrInvalidRecoveryCode is returned when a recovery code is unknown or
	// already consumed
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")

	// ErrMissingFactor is returned when a verify request carries neither a
	// TOTP code nor a recovery code
	ErrMissingFactor = errors.New("two-factor or recovery code is required")

	// ErrUserNotFound is returned by the administrative reset when the target
	// user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken is returned when a bearer token cannot be unsealed or
	// validated
	ErrInvalidToken = errors.New("invalid token")
)

// RateLimitError reports how long the caller must wait before the
// attempt window resets.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %d seconds", int(e.RetryAfter.Seconds()))
}
