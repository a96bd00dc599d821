package directory

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/oxydem/authgate/core"
)

type record struct {
	user         core.User
	passwordHash []byte
}

// MemoryDirectory is an in-memory implementation of the UserDirectory
// interface, used for development and testing in place of a real user
// directory service.
type MemoryDirectory struct {
	mu      sync.Mutex
	users   map[string]*record
	byEmail map[string]string

	// dummyHash keeps the unknown-email path doing the same bcrypt work
	// as the wrong-password path
	dummyHash []byte
}

// NewMemoryDirectory creates an empty in-memory directory
func NewMemoryDirectory() *MemoryDirectory {
	dummy, err := bcrypt.GenerateFromPassword([]byte("authgate-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on invalid cost, which DefaultCost is not
		panic(err)
	}
	return &MemoryDirectory{
		users:     make(map[string]*record),
		byEmail:   make(map[string]string),
		dummyHash: dummy,
	}
}

// AddUser registers a user with a bcrypt-hashed password
func (d *MemoryDirectory) AddUser(id, email, name, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.users[id] = &record{
		user: core.User{
			ID:    id,
			Email: email,
			Name:  name,
		},
		passwordHash: hash,
	}
	d.byEmail[strings.ToLower(email)] = id
	return nil
}

// VerifyPassword checks the submitted credentials. Unknown email and wrong
// password produce the same core.ErrInvalidCredentials.
func (d *MemoryDirectory) VerifyPassword(ctx context.Context, email, password string) (*core.User, error) {
	d.mu.Lock()
	rec := d.lookupByEmail(email)
	hash := d.dummyHash
	if rec != nil {
		hash = rec.passwordHash
	}
	d.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || rec == nil {
		return nil, core.ErrInvalidCredentials
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	user := copyUser(&rec.user)
	return user, nil
}

// FindByID returns the user or core.ErrUserNotFound
func (d *MemoryDirectory) FindByID(ctx context.Context, userID string) (*core.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.users[userID]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return copyUser(&rec.user), nil
}

// SetTwoFactor stores the TOTP secret and the sealed recovery code set together
func (d *MemoryDirectory) SetTwoFactor(ctx context.Context, userID, totpSecret string, sealedCodes []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.users[userID]
	if !ok {
		return core.ErrUserNotFound
	}
	rec.user.TOTPSecret = totpSecret
	rec.user.RecoveryCodes = append([]byte(nil), sealedCodes...)
	return nil
}

// ClearTwoFactor removes the TOTP secret and the recovery code set together
func (d *MemoryDirectory) ClearTwoFactor(ctx context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.users[userID]
	if !ok {
		return core.ErrUserNotFound
	}
	rec.user.TOTPSecret = ""
	rec.user.RecoveryCodes = nil
	return nil
}

// SetRecoveryCodes replaces the sealed recovery code set unconditionally
func (d *MemoryDirectory) SetRecoveryCodes(ctx context.Context, userID string, sealedCodes []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.users[userID]
	if !ok {
		return core.ErrUserNotFound
	}
	rec.user.RecoveryCodes = append([]byte(nil), sealedCodes...)
	return nil
}

// ReplaceRecoveryCodesIf swaps the sealed recovery code set only if the
// stored value is still equal to old
func (d *MemoryDirectory) ReplaceRecoveryCodesIf(ctx context.Context, userID string, old, updated []byte) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.users[userID]
	if !ok {
		return false, core.ErrUserNotFound
	}
	if !bytes.Equal(rec.user.RecoveryCodes, old) {
		return false, nil
	}
	rec.user.RecoveryCodes = append([]byte(nil), updated...)
	return true, nil
}

func (d *MemoryDirectory) lookupByEmail(email string) *record {
	id, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return nil
	}
	return d.users[id]
}

func copyUser(u *core.User) *core.User {
	out := *u
	out.RecoveryCodes = append([]byte(nil), u.RecoveryCodes...)
	return &out
}
