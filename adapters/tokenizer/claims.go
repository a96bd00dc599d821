package tokenizer

import "github.com/golang-jwt/jwt/v5"

// BearerClaims combines standard claims with the login email
type BearerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}
