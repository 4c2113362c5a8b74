package token

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/skillsenselab/auth-service/errors"
	"github.com/skillsenselab/auth-service/secrets"
)

func newTestService(t *testing.T, cfg Config, secret string) (*Service, *secrets.Static) {
	t.Helper()
	provider := secrets.NewStatic(secret)
	cache := secrets.NewCache(provider, time.Minute)
	svc, err := NewService(cfg, cache)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, provider
}

func TestConfig_Validate_ExpiryPolicy(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"ttl only", Config{TTL: time.Hour}, true},
		{"non-expiring only", Config{NonExpiring: true}, true},
		{"both set", Config{TTL: time.Hour, NonExpiring: true}, false},
		{"neither set", Config{}, false},
		{"negative ttl", Config{TTL: -time.Hour}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			err := tt.cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestService_IssueVerify_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t, Config{TTL: time.Hour}, "hmac-key-1")
	ctx := context.Background()

	id := Identity{UserID: "user-1", Email: "alice@example.com", Name: "Alice"}
	raw, err := svc.Issue(ctx, id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(raw, ".") != 2 {
		t.Fatalf("expected a three-part JWT, got %q", raw)
	}

	got, err := svc.Verify(ctx, raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != id {
		t.Errorf("Verify() = %+v, want %+v", got, id)
	}
}

func TestService_Verify_WrongSecret(t *testing.T) {
	issuer, _ := newTestService(t, Config{TTL: time.Hour}, "hmac-key-1")
	verifier, _ := newTestService(t, Config{TTL: time.Hour}, "different-key")
	ctx := context.Background()

	raw, err := issuer.Issue(ctx, Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = verifier.Verify(ctx, raw)
	assertAuthCode(t, err, apperrors.ErrCodeInvalidToken)
}

func TestService_Verify_Malformed(t *testing.T) {
	svc, _ := newTestService(t, Config{TTL: time.Hour}, "hmac-key-1")

	for _, raw := range []string{"", "not-a-token", "a.b.c", "header.payload"} {
		_, err := svc.Verify(context.Background(), raw)
		assertAuthCode(t, err, apperrors.ErrCodeInvalidToken)
	}
}

func TestService_Verify_Expired(t *testing.T) {
	svc, _ := newTestService(t, Config{TTL: time.Millisecond}, "hmac-key-1")
	ctx := context.Background()

	raw, err := svc.Issue(ctx, Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, err = svc.Verify(ctx, raw)
	assertAuthCode(t, err, apperrors.ErrCodeTokenExpired)
}

func TestService_NonExpiring_NoExpClaim(t *testing.T) {
	svc, _ := newTestService(t, Config{NonExpiring: true}, "hmac-key-1")
	ctx := context.Background()

	raw, err := svc.Issue(ctx, Identity{UserID: "user-1", Email: "a@b.co"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.parse(raw, "hmac-key-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Error("non-expiring policy must omit the exp claim entirely")
	}

	if _, err := svc.Verify(ctx, raw); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestService_Verify_RotationGrace(t *testing.T) {
	provider := secrets.NewStatic("hmac-key-1")
	cache := secrets.NewCache(provider, time.Minute)
	svc, err := NewService(Config{TTL: time.Hour}, cache)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	raw, err := svc.Issue(ctx, Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	provider.Rotate("hmac-key-2")
	if _, err := cache.ForceRefresh(ctx); err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}

	// The in-flight token was signed with the previous key; verification
	// must still succeed within the grace window.
	if _, err := svc.Verify(ctx, raw); err != nil {
		t.Errorf("Verify after rotation: %v", err)
	}

	// New tokens are signed with the rotated key.
	raw2, err := svc.Issue(ctx, Identity{UserID: "user-2"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Verify(ctx, raw2); err != nil {
		t.Errorf("Verify of freshly issued token: %v", err)
	}
}

func TestService_Verify_RotationGraceExpires(t *testing.T) {
	provider := secrets.NewStatic("hmac-key-1")
	cache := secrets.NewCache(provider, 20*time.Millisecond)
	svc, err := NewService(Config{TTL: time.Hour}, cache)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	raw, err := svc.Issue(ctx, Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	provider.Rotate("hmac-key-2")
	if _, err := cache.ForceRefresh(ctx); err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}
	if _, err := svc.Verify(ctx, raw); err != nil {
		t.Fatalf("Verify inside grace window: %v", err)
	}

	// Once the grace window has elapsed, tokens signed with the retired key
	// must stop verifying.
	time.Sleep(40 * time.Millisecond)
	_, err = svc.Verify(ctx, raw)
	assertAuthCode(t, err, apperrors.ErrCodeInvalidToken)
}

func TestService_Verify_WrongIssuer(t *testing.T) {
	issuer, _ := newTestService(t, Config{TTL: time.Hour, Issuer: "other-platform"}, "hmac-key-1")
	verifier, _ := newTestService(t, Config{TTL: time.Hour}, "hmac-key-1")
	ctx := context.Background()

	raw, err := issuer.Issue(ctx, Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = verifier.Verify(ctx, raw)
	assertAuthCode(t, err, apperrors.ErrCodeInvalidToken)
}

func assertAuthCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatal("expected verification to fail")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Errorf("expected code %s, got %s", code, appErr.Code)
	}
	if appErr.HTTPStatus != 401 {
		t.Errorf("expected 401, got %d", appErr.HTTPStatus)
	}
}
