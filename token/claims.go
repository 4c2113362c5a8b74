package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the bearer-token claims. Tokens are integrity-protected, not
// encrypted; none of these fields are secret.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Identity is the authenticated identity context extracted from a verified
// token and attached to protected calls.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
