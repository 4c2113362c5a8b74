// Package auth orchestrates registration, login, token verification, and the
// password reset flow. The service is stateless per call; the only shared
// state lives in the injected secret cache and the gate's decision cache.
//
// All authentication failures surface as a single generic 401 regardless of
// the internal branch taken, so responses never reveal whether an email or
// token exists.
package auth

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/auth-service/errors"
	"github.com/skillsenselab/auth-service/logger"
	"github.com/skillsenselab/auth-service/notify"
	"github.com/skillsenselab/auth-service/observability"
	"github.com/skillsenselab/auth-service/password"
	"github.com/skillsenselab/auth-service/store"
	"github.com/skillsenselab/auth-service/token"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// ResetTokenTTL is how long a password reset token stays redeemable.
const ResetTokenTTL = time.Hour

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Service implements the authentication operations.
type Service struct {
	users    store.UserStore
	hasher   password.Hasher
	policy   password.Policy
	tokens   *token.Service
	notifier notify.Notifier
	metrics  *observability.AuthMetrics
	log      *logger.Logger

	// dummyHash is compared against when the email is unknown, so a login
	// for a missing account costs the same bcrypt work as a wrong password.
	dummyHash string
}

// NewService creates the auth service. metrics may be nil.
func NewService(
	users store.UserStore,
	hasher password.Hasher,
	tokens *token.Service,
	notifier notify.Notifier,
	metrics *observability.AuthMetrics,
	log *logger.Logger,
) (*Service, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		policy:    password.DefaultPolicy(),
		tokens:    tokens,
		notifier:  notifier,
		metrics:   metrics,
		log:       log.WithComponent("auth"),
		dummyHash: dummyHash,
	}, nil
}

// NormalizeEmail lower-cases and trims an email address. All comparisons and
// storage use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates input, hashes the password, and atomically creates the
// user. Validation failures never touch the store.
func (s *Service) Register(ctx context.Context, email, pass, name string) (*store.User, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanRegister)
	defer span.End()

	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, errors.InvalidInput("email", "must be a valid email address")
	}
	if err := s.policy.Check(pass); err != nil {
		return nil, errors.WeakPassword(err.Error())
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, errors.Internal(err)
	}

	now := time.Now().UTC()
	user := &store.User{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if stderrors.Is(err, store.ErrEmailTaken) {
			s.metrics.RecordRegistration(ctx, "conflict")
			return nil, errors.EmailTaken()
		}
		s.metrics.RecordRegistration(ctx, "error")
		return nil, errors.DatabaseError(err)
	}

	s.metrics.RecordRegistration(ctx, "success")
	s.log.Info("user registered", logger.Fields(logger.FieldUserID, user.UserID))

	// Welcome email is best-effort; a delivery failure never fails the
	// registration that already committed.
	if s.notifier != nil {
		if err := s.notifier.SendWelcome(ctx, user.Email, user.Name); err != nil {
			s.log.WithError(err).Warn("welcome email failed", logger.Fields(logger.FieldUserID, user.UserID))
		}
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token. An unknown email and
// a wrong password return the same error through the same code path.
func (s *Service) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanLogin)
	defer span.End()

	email = NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.DatabaseError(err)
	}

	storedHash := s.dummyHash
	if user != nil {
		storedHash = user.PasswordHash
	}
	// The comparison always runs so a missing account and a wrong password
	// cost the same and exit through the same branch.
	if verr := s.hasher.Verify(pass, storedHash); verr != nil || user == nil {
		s.metrics.RecordLogin(ctx, "denied")
		return nil, errors.InvalidCredentials()
	}

	raw, err := s.tokens.Issue(ctx, token.Identity{
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		s.metrics.RecordLogin(ctx, "error")
		return nil, err
	}

	s.metrics.RecordLogin(ctx, "success")
	s.log.Info("login succeeded", logger.Fields(logger.FieldUserID, user.UserID))
	return &LoginResult{
		Token:  raw,
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

// VerifyToken validates a raw bearer token and returns the identity it
// carries.
func (s *Service) VerifyToken(ctx context.Context, raw string) (token.Identity, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanVerify)
	defer span.End()

	id, err := s.tokens.Verify(ctx, raw)
	if err != nil {
		s.metrics.RecordVerify(ctx, "denied")
		return token.Identity{}, err
	}
	s.metrics.RecordVerify(ctx, "success")
	return id, nil
}

// ForgotPassword starts the reset flow. The caller always gets the same
// outcome whether or not the email exists; only dependency failures surface.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanForgot)
	defer span.End()

	email = NormalizeEmail(email)
	s.metrics.RecordResetRequest(ctx)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			// Indistinguishable from the known-email path.
			return nil
		}
		return errors.DatabaseError(err)
	}

	resetToken, err := password.GenerateToken(password.ResetTokenBytes)
	if err != nil {
		return errors.Internal(err)
	}

	expiry := time.Now().Add(ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.UserID, resetToken, expiry); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			// The account vanished between lookup and write; same outcome
			// as an unknown email.
			return nil
		}
		return errors.DatabaseError(err)
	}

	// Delivery is fire-and-forget: a send failure is logged and the caller
	// still sees the generic success. No retry here; a second email must
	// come from a second explicit request.
	if err := s.notifier.SendPasswordReset(ctx, user.Email, user.Name, resetToken); err != nil {
		s.log.WithError(err).Error("reset email failed", logger.Fields(logger.FieldUserID, user.UserID))
	}
	return nil
}

// ResetPassword redeems a reset token. Unknown, expired, and already-used
// tokens all fail with the same generic error.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanReset)
	defer span.End()

	if rawToken == "" {
		s.metrics.RecordResetRedeem(ctx, "denied")
		return errors.ResetTokenInvalid()
	}
	if err := s.policy.Check(newPassword); err != nil {
		return errors.WeakPassword(err.Error())
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.Internal(err)
	}

	user, err := s.users.RedeemResetToken(ctx, rawToken, hash, time.Now())
	if err != nil {
		if stderrors.Is(err, store.ErrResetTokenInvalid) {
			s.metrics.RecordResetRedeem(ctx, "denied")
			return errors.ResetTokenInvalid()
		}
		s.metrics.RecordResetRedeem(ctx, "error")
		return errors.DatabaseError(err)
	}

	s.metrics.RecordResetRedeem(ctx, "success")
	s.log.Info("password reset", logger.Fields(logger.FieldUserID, user.UserID))
	return nil
}
