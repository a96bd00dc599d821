package tokenizer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oxydem/authgate/core"
)

const AudienceBearer = "auth:bearer"

// DefaultTokenTTL is the bearer token lifetime used when none is configured
const DefaultTokenTTL = 8 * time.Hour

// JWTTokenizer implements the TokenIssuer interface using JWT
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	issuer  string
	ttl     time.Duration
}

// NewJWTTokenizer creates a new JWT token issuer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, issuer string, ttl time.Duration) *JWTTokenizer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTTokenizer{
		signKey: signKey,
		issuer:  issuer,
		ttl:     ttl,
	}
}

// Issue creates a signed bearer token for the user
func (j *JWTTokenizer) Issue(ctx context.Context, user *core.User) (string, error) {
	now := time.Now()
	claims := BearerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.New().String(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{AudienceBearer},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		Email: user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Validate parses a bearer token and returns the subject user ID
func (j *JWTTokenizer) Validate(ctx context.Context, tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &BearerClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceBearer))

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*BearerClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims type")
	}

	if claims.Subject == "" {
		return "", core.ErrInvalidToken
	}

	return claims.Subject, nil
}
