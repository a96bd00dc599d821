package service

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTOTPEngine(t *testing.T, at time.Time) (*TOTPEngine, string) {
	t.Helper()
	engine := NewTOTPEngine("authgate-test")
	engine.now = func() time.Time { return at }

	secret, uri, err := engine.GenerateSecret("alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	require.Contains(t, uri, "authgate-test")
	return engine, secret
}

func TestTOTPVerifyCurrentStep(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 15, 0, time.UTC)
	engine, secret := fixedTOTPEngine(t, at)

	code, err := totp.GenerateCode(secret, at)
	require.NoError(t, err)

	assert.True(t, engine.VerifyCode(secret, code))
}

func TestTOTPVerifyAdjacentSteps(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 15, 0, time.UTC)
	engine, secret := fixedTOTPEngine(t, at)

	previous, err := totp.GenerateCode(secret, at.Add(-30*time.Second))
	require.NoError(t, err)
	next, err := totp.GenerateCode(secret, at.Add(30*time.Second))
	require.NoError(t, err)

	assert.True(t, engine.VerifyCode(secret, previous))
	assert.True(t, engine.VerifyCode(secret, next))
}

func TestTOTPRejectsDistantSteps(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 15, 0, time.UTC)
	engine, secret := fixedTOTPEngine(t, at)

	stale, err := totp.GenerateCode(secret, at.Add(-2*time.Minute))
	require.NoError(t, err)
	future, err := totp.GenerateCode(secret, at.Add(2*time.Minute))
	require.NoError(t, err)

	assert.False(t, engine.VerifyCode(secret, stale))
	assert.False(t, engine.VerifyCode(secret, future))
}

func TestTOTPRejectsMalformedCodes(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 15, 0, time.UTC)
	engine, secret := fixedTOTPEngine(t, at)

	assert.False(t, engine.VerifyCode(secret, ""))
	assert.False(t, engine.VerifyCode(secret, "123"))
	assert.False(t, engine.VerifyCode(secret, "12345678"))
	assert.False(t, engine.VerifyCode(secret, "abcdef"))
}

func TestTOTPTrimsWhitespace(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 15, 0, time.UTC)
	engine, secret := fixedTOTPEngine(t, at)

	code, err := totp.GenerateCode(secret, at)
	require.NoError(t, err)

	assert.True(t, engine.VerifyCode(secret, "  "+code+"\n"))
}
