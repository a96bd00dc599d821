package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxydem/authgate/core"
)

func newTestDirectory(t *testing.T) *MemoryDirectory {
	t.Helper()
	d := NewMemoryDirectory()
	require.NoError(t, d.AddUser("u1", "alice@example.com", "Alice", "s3cret"))
	return d
}

func TestVerifyPassword(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	user, err := d.VerifyPassword(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Alice", user.Name)

	_, err = d.VerifyPassword(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	// Unknown email fails identically to a wrong password
	_, err = d.VerifyPassword(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestVerifyPasswordCaseInsensitiveEmail(t *testing.T) {
	d := newTestDirectory(t)

	user, err := d.VerifyPassword(context.Background(), "Alice@EXAMPLE.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestFindByID(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	user, err := d.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = d.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestTwoFactorLifecycle(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.SetTwoFactor(ctx, "u1", "SECRET", []byte("sealed")))

	user, err := d.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, user.TwoFactorEnabled())
	assert.Equal(t, []byte("sealed"), user.RecoveryCodes)

	require.NoError(t, d.ClearTwoFactor(ctx, "u1"))
	user, err = d.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, user.TwoFactorEnabled())
	assert.Nil(t, user.RecoveryCodes)

	assert.ErrorIs(t, d.SetTwoFactor(ctx, "missing", "S", nil), core.ErrUserNotFound)
	assert.ErrorIs(t, d.ClearTwoFactor(ctx, "missing"), core.ErrUserNotFound)
}

func TestReplaceRecoveryCodesIf(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.SetRecoveryCodes(ctx, "u1", []byte("v1")))

	swapped, err := d.ReplaceRecoveryCodesIf(ctx, "u1", []byte("v1"), []byte("v2"))
	require.NoError(t, err)
	assert.True(t, swapped)

	// The same swap again fails the comparison
	swapped, err = d.ReplaceRecoveryCodesIf(ctx, "u1", []byte("v1"), []byte("v3"))
	require.NoError(t, err)
	assert.False(t, swapped)

	user, err := d.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), user.RecoveryCodes)

	_, err = d.ReplaceRecoveryCodesIf(ctx, "missing", nil, nil)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestFindByIDReturnsCopy(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.SetRecoveryCodes(ctx, "u1", []byte("original")))

	user, err := d.FindByID(ctx, "u1")
	require.NoError(t, err)
	user.RecoveryCodes[0] = 'X'
	user.TOTPSecret = "mutated"

	fresh, err := d.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), fresh.RecoveryCodes)
	assert.Empty(t, fresh.TOTPSecret)
}
