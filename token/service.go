// Package token issues and verifies signed bearer tokens. Tokens are signed
// with HMAC-SHA256 using the secret supplied by the secrets cache; during a
// rotation, verification falls back to the previous secret so tokens issued
// before the rotation remain valid within one refresh window.
package token

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skillsenselab/auth-service/errors"
	"github.com/skillsenselab/auth-service/secrets"
)

// Source supplies signing secrets. *secrets.Cache satisfies it.
type Source interface {
	Current(ctx context.Context) (secrets.Secret, error)
	Previous() (secrets.Secret, bool)
}

// Service issues and verifies bearer tokens.
type Service struct {
	cfg     Config
	secrets Source
}

// NewService creates a token service. The config's expiry policy must be
// explicit; see Config.Validate.
func NewService(cfg Config, source Source) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return &Service{cfg: cfg, secrets: source}, nil
}

// Issue creates a signed token for the given identity. The "exp" claim is
// present only under a TTL policy.
func (s *Service) Issue(ctx context.Context, id Identity) (string, error) {
	secret, err := s.secrets.Current(ctx)
	if err != nil {
		return "", errors.ExternalServiceError("secret store", err)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.UserID,
			Issuer:   s.cfg.Issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Email: id.Email,
		Name:  id.Name,
	}
	if !s.cfg.NonExpiring {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.cfg.TTL))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret.Value))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify validates signature, structure, issuer, and (when present) expiry,
// and returns the identity carried by the token. All failures map to a 401
// AppError; expiry is distinguished only by error code, never by message
// detail that could leak state.
func (s *Service) Verify(ctx context.Context, raw string) (Identity, error) {
	secret, err := s.secrets.Current(ctx)
	if err != nil {
		return Identity{}, errors.ExternalServiceError("secret store", err)
	}

	claims, parseErr := s.parse(raw, secret.Value)
	if parseErr != nil && stderrors.Is(parseErr, jwt.ErrTokenSignatureInvalid) {
		// Rotation grace: a token signed with the previous key is still
		// acceptable while that key remains in the cache.
		if prev, ok := s.secrets.Previous(); ok {
			claims, parseErr = s.parse(raw, prev.Value)
		}
	}
	if parseErr != nil {
		if stderrors.Is(parseErr, jwt.ErrTokenExpired) {
			return Identity{}, errors.TokenExpired()
		}
		return Identity{}, errors.InvalidToken().WithCause(parseErr)
	}

	return Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// parse verifies the token against one key. The signing method is pinned to
// HMAC-SHA256; tokens claiming any other algorithm are rejected.
func (s *Service) parse(raw, key string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("token: unexpected signing method: %s", t.Method.Alg())
			}
			return []byte(key), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
