package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/oxydem/authgate/core"
	"github.com/oxydem/authgate/ports"
)

const (
	// DefaultRecoveryCodeCount is the size of a freshly generated code set
	DefaultRecoveryCodeCount = 5

	recoveryCodeLength   = 10
	recoveryCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// consumeRetries bounds the compare-and-swap loop when concurrent
	// requests race on the same code set
	consumeRetries = 4
)

// RecoveryCodeManager generates and consumes single-use backup codes. The
// set is sealed before it reaches the directory, so codes are encrypted
// at rest.
type RecoveryCodeManager struct {
	directory ports.UserDirectory
	sealer    *Sealer
}

// NewRecoveryCodeManager creates a recovery code manager
func NewRecoveryCodeManager(directory ports.UserDirectory, sealer *Sealer) *RecoveryCodeManager {
	return &RecoveryCodeManager{
		directory: directory,
		sealer:    sealer,
	}
}

// Generate produces n fresh high-entropy codes
func (m *RecoveryCodeManager) Generate(n int) ([]string, error) {
	if n <= 0 {
		n = DefaultRecoveryCodeCount
	}
	codes := make([]string, n)
	for i := range codes {
		code, err := randomRecoveryCode(recoveryCodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate recovery code: %w", err)
		}
		codes[i] = code
	}
	return codes, nil
}

// SealCodes encrypts a code set for storage in the directory
func (m *RecoveryCodeManager) SealCodes(codes []string) ([]byte, error) {
	payload, err := json.Marshal(codes)
	if err != nil {
		return nil, err
	}
	return m.sealer.SealBytes(payload)
}

// Store seals and persists a fresh code set, replacing any existing set
func (m *RecoveryCodeManager) Store(ctx context.Context, userID string, codes []string) error {
	sealed, err := m.SealCodes(codes)
	if err != nil {
		return err
	}
	return m.directory.SetRecoveryCodes(ctx, userID, sealed)
}

// Consume removes exactly the submitted code from the user's set. The
// replacement is a compare-and-swap against the sealed blob read at the
// start, so two concurrent consumers of the same code cannot both
// succeed; on conflict the whole check is retried.
func (m *RecoveryCodeManager) Consume(ctx context.Context, userID, submitted string) error {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return core.ErrInvalidRecoveryCode
	}

	for i := 0; i < consumeRetries; i++ {
		user, err := m.directory.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if len(user.RecoveryCodes) == 0 {
			return core.ErrInvalidRecoveryCode
		}

		codes, err := m.openCodes(user.RecoveryCodes)
		if err != nil {
			return fmt.Errorf("failed to open recovery codes: %w", err)
		}

		idx := -1
		for j, code := range codes {
			if code == submitted {
				idx = j
				break
			}
		}
		if idx < 0 {
			return core.ErrInvalidRecoveryCode
		}

		remaining := make([]string, 0, len(codes)-1)
		remaining = append(remaining, codes[:idx]...)
		remaining = append(remaining, codes[idx+1:]...)

		sealed, err := m.SealCodes(remaining)
		if err != nil {
			return err
		}

		swapped, err := m.directory.ReplaceRecoveryCodesIf(ctx, userID, user.RecoveryCodes, sealed)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}
	}

	return core.ErrInvalidRecoveryCode
}

func (m *RecoveryCodeManager) openCodes(sealed []byte) ([]string, error) {
	payload, err := m.sealer.OpenBytes(sealed)
	if err != nil {
		return nil, err
	}
	var codes []string
	if err := json.Unmarshal(payload, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func randomRecoveryCode(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(recoveryCodeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = recoveryCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
