package core

import "time"

// User is the authentication view of a directory record
type User struct {
	ID    string // Unique identifier of the user
	Email string // Login identifier
	Name  string // Display name

	// TOTPSecret is the base32 TOTP secret, empty unless two-factor is
	// enabled. RecoveryCodes holds the sealed ciphertext of the backup
	// code set and is present exactly when TOTPSecret is.
	TOTPSecret    string
	RecoveryCodes []byte
}

// TwoFactorEnabled reports whether the user has completed 2FA enrollment
func (u *User) TwoFactorEnabled() bool {
	return u != nil && u.TOTPSecret != ""
}

// PendingSession binds an in-progress login to a user awaiting
// second-factor proof. Handle is the raw store key; clients only ever
// see its sealed form.
type PendingSession struct {
	Handle    string    // Unguessable identifier, >=128 bits of entropy
	UserID    string    // User that passed the password check
	CreatedAt time.Time // When the password check succeeded
	ExpiresAt time.Time // When the second-factor window closes
}
