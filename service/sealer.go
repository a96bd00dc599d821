package service

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealKeySize is the required length of the sealer key in bytes
const SealKeySize = chacha20poly1305.KeySize

var errSealedValueInvalid = errors.New("sealed value is invalid")

// Sealer wraps values that leave the process (pending-session handles,
// issued bearer tokens) in authenticated encryption, so clients hold
// capabilities bound to a server-held key rather than raw identifiers.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a sealer from a 32-byte key
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != SealKeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", SealKeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// SealBytes encrypts plaintext, prefixing the random nonce
func (s *Sealer) SealBytes(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenBytes decrypts a value produced by SealBytes. Truncated or tampered
// input fails authentication.
func (s *Sealer) OpenBytes(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, errSealedValueInvalid
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errSealedValueInvalid
	}
	return plaintext, nil
}

// Seal encrypts a string and encodes the result for transport
func (s *Sealer) Seal(plaintext string) (string, error) {
	sealed, err := s.SealBytes([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decodes and decrypts a value produced by Seal
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", errSealedValueInvalid
	}
	plaintext, err := s.OpenBytes(raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
