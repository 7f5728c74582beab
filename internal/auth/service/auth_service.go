package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"identity-service/internal/audit"
	auditdomain "identity-service/internal/audit/domain"
	"identity-service/internal/dbx"
	"identity-service/internal/event"
	"identity-service/internal/security"
	tokendomain "identity-service/internal/token/domain"
	userdomain "identity-service/internal/user/domain"
	userrepo "identity-service/internal/user/repository"
)

// Sentinel errors for the auth service; the handler maps them to HTTP status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid refresh token")

	// ErrValidation wraps input validation failures; the handler maps it to 400.
	ErrValidation = errors.New("validation failed")
)

// AuthResult holds the outcome of Register, Login, or Refresh.
type AuthResult struct {
	User         *userdomain.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	TouchLastLogin(ctx context.Context, id string) error
}

// TokenRepo is the refresh token ledger as seen by the auth service.
type TokenRepo interface {
	Find(ctx context.Context, token string) (*tokendomain.RefreshToken, error)
	FindForUpdate(ctx context.Context, token string) (*tokendomain.RefreshToken, error)
	Create(ctx context.Context, t *tokendomain.RefreshToken) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteByFamily(ctx context.Context, familyID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Metrics counts auth outcomes. The telemetry package provides the otel
// implementation; NopMetrics satisfies it for tests and tools.
type Metrics interface {
	LoginSucceeded(ctx context.Context)
	LoginFailed(ctx context.Context)
	TokenRotated(ctx context.Context)
	FamilyRevoked(ctx context.Context, reason string)
}

type NopMetrics struct{}

func (NopMetrics) LoginSucceeded(context.Context)        {}
func (NopMetrics) LoginFailed(context.Context)           {}
func (NopMetrics) TokenRotated(context.Context)          {}
func (NopMetrics) FamilyRevoked(context.Context, string) {}

// AuthService implements register, login, refresh rotation, and logout.
//
// Repositories are built per call from factory functions so the same code
// runs against the pool for reads and against a transaction for rotation.
type AuthService struct {
	db      dbx.DBTX
	runner  dbx.Runner
	users   func(dbx.DBTX) UserRepo
	tokens  func(dbx.DBTX) TokenRepo
	hasher  *security.Hasher
	codec   *security.TokenCodec
	bus     event.Publisher
	auditor audit.AuditLogger
	metrics Metrics
	log     *slog.Logger
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	db dbx.DBTX,
	runner dbx.Runner,
	users func(dbx.DBTX) UserRepo,
	tokens func(dbx.DBTX) TokenRepo,
	hasher *security.Hasher,
	codec *security.TokenCodec,
	bus event.Publisher,
	auditor audit.AuditLogger,
	metrics Metrics,
	log *slog.Logger,
) *AuthService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &AuthService{
		db:      db,
		runner:  runner,
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		codec:   codec,
		bus:     bus,
		auditor: auditor,
		metrics: metrics,
		log:     log,
	}
}

// Register creates a user with the given email and password and returns a
// fresh token pair in a new family. Duplicate email fails with
// ErrEmailAlreadyRegistered whether caught by the pre-check or by the unique
// index, so the check-then-act race cannot create two accounts.
func (s *AuthService) Register(ctx context.Context, email, password, name, role string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	r := userdomain.Role(strings.ToUpper(strings.TrimSpace(role)))
	if r == "" {
		r = userdomain.RoleMember
	}
	if !userdomain.ValidRole(r) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Role:         r,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	var result *AuthResult
	var events event.Collector
	err = s.runner.InTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.users(tx)
		existing, err := users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailAlreadyRegistered
		}
		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, userrepo.ErrDuplicateEmail) {
				return ErrEmailAlreadyRegistered
			}
			return err
		}
		pair, err := s.issuePair(ctx, s.tokens(tx), user, uuid.New().String())
		if err != nil {
			return err
		}
		result = pair
		ev := event.New(event.TypeUserRegistered)
		ev.UserID = user.ID
		ev.Email = user.Email
		events.Add(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Flush(ctx, s.bus)
	s.auditor.LogEvent(ctx, user.ID, auditdomain.ActionRegister, "auth", "")
	return result, nil
}

// Login authenticates with email/password and returns a token pair in a new
// family. An unknown email takes the same bcrypt comparison as a wrong
// password, so the two failures are indistinguishable by timing and by error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Compare(security.DummyHash, password)
		s.metrics.LoginFailed(ctx)
		s.auditor.LogEvent(ctx, "", auditdomain.ActionLoginFailure, "auth", email)
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		s.metrics.LoginFailed(ctx)
		s.auditor.LogEvent(ctx, user.ID, auditdomain.ActionLoginFailure, "auth", "")
		return nil, ErrInvalidCredentials
	}

	var result *AuthResult
	var events event.Collector
	err = s.runner.InTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.users(tx).TouchLastLogin(ctx, user.ID); err != nil {
			return err
		}
		pair, err := s.issuePair(ctx, s.tokens(tx), user, uuid.New().String())
		if err != nil {
			return err
		}
		result = pair
		ev := event.New(event.TypeUserLoggedIn)
		ev.UserID = user.ID
		ev.Email = user.Email
		events.Add(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Flush(ctx, s.bus)
	s.metrics.LoginSucceeded(ctx)
	s.auditor.LogEvent(ctx, user.ID, auditdomain.ActionLogin, "auth", "")
	return result, nil
}

// Refresh redeems a refresh token: exactly one concurrent caller wins the
// rotation, receives a new pair in the same family, and the consumed token
// never validates again. A correctly signed token with no ledger entry is
// treated as a replay of an already-consumed token and revokes its whole
// family. Every failure surfaces as ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	userID, familyID, err := s.codec.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	var result *AuthResult
	var opErr error
	var replay, principalGone bool
	var events event.Collector
	err = s.runner.InTx(ctx, dbx.Serializable, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.tokens(tx)
		rec, err := tokens.FindForUpdate(ctx, refreshToken)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		// Signed but absent from the ledger: the token was already consumed
		// or revoked. Revoke the family named in the claims and commit the
		// revocation even though the call itself fails.
		if rec == nil {
			n, err := tokens.DeleteByFamily(ctx, familyID)
			if err != nil {
				return err
			}
			replayEv := event.New(event.TypeReplayDetected)
			replayEv.UserID = userID
			replayEv.FamilyID = familyID
			events.Add(replayEv)
			if n > 0 {
				events.Add(revocationEvent(userID, familyID, "replay"))
			}
			replay = true
			opErr = ErrInvalidRefreshToken
			return nil
		}

		// Lifetime enforced against the ledger row, not only the signature.
		if rec.Expired(now) {
			if err := tokens.DeleteByToken(ctx, refreshToken); err != nil {
				return err
			}
			opErr = ErrInvalidRefreshToken
			return nil
		}

		user, err := s.users(tx).GetByID(ctx, rec.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			if _, err := tokens.DeleteByFamily(ctx, rec.FamilyID); err != nil {
				return err
			}
			events.Add(revocationEvent(rec.UserID, rec.FamilyID, "principal_deleted"))
			principalGone = true
			opErr = ErrInvalidRefreshToken
			return nil
		}

		// Rotate: consume the old entry, keep the family.
		if err := tokens.DeleteByToken(ctx, refreshToken); err != nil {
			return err
		}
		pair, err := s.issuePair(ctx, tokens, user, rec.FamilyID)
		if err != nil {
			return err
		}
		result = pair
		return nil
	})
	if err != nil {
		// Database failures must not leak detail through the refresh path.
		s.log.ErrorContext(ctx, "refresh failed", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	events.Flush(ctx, s.bus)
	if opErr != nil {
		if replay {
			s.metrics.FamilyRevoked(ctx, "replay")
			s.auditor.LogEvent(ctx, userID, auditdomain.ActionReplayRevocation, "auth", familyID)
		}
		if principalGone {
			s.metrics.FamilyRevoked(ctx, "principal_deleted")
		}
		return nil, opErr
	}
	s.metrics.TokenRotated(ctx)
	s.auditor.LogEvent(ctx, userID, auditdomain.ActionRefresh, "auth", "")
	return result, nil
}

// Logout revokes the whole family of the presented refresh token. Unknown
// tokens are a no-op: logout is idempotent and never fails the client.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	tokens := s.tokens(s.db)
	rec, err := tokens.Find(ctx, refreshToken)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if _, err := tokens.DeleteByFamily(ctx, rec.FamilyID); err != nil {
		return err
	}
	ev := revocationEvent(rec.UserID, rec.FamilyID, "logout")
	s.bus.Publish(ctx, ev)
	s.metrics.FamilyRevoked(ctx, "logout")
	s.auditor.LogEvent(ctx, rec.UserID, auditdomain.ActionLogout, "auth", "")
	return nil
}

// LogoutSingle removes only the presented token; other tokens in the family
// stay valid. Unknown tokens are a no-op.
func (s *AuthService) LogoutSingle(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	tokens := s.tokens(s.db)
	rec, err := tokens.Find(ctx, refreshToken)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if err := tokens.DeleteByToken(ctx, refreshToken); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, rec.UserID, auditdomain.ActionLogoutSingle, "auth", "")
	return nil
}

// RevokeAllForUser removes every outstanding refresh token the user owns.
// Used by admin password resets.
func (s *AuthService) RevokeAllForUser(ctx context.Context, userID string) error {
	n, err := s.tokens(s.db).DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.metrics.FamilyRevoked(ctx, "password_reset")
	}
	return nil
}

// CleanupExpired removes ledger entries whose lifetime has passed. Idempotent;
// the sweeper calls it on a ticker.
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.tokens(s.db).DeleteExpiredBefore(ctx, time.Now().UTC())
}

func (s *AuthService) issuePair(ctx context.Context, tokens TokenRepo, user *userdomain.User, familyID string) (*AuthResult, error) {
	refresh, refreshExp, err := s.codec.IssueRefresh(user.ID, familyID)
	if err != nil {
		return nil, err
	}
	access, accessExp, err := s.codec.IssueAccess(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	rec := &tokendomain.RefreshToken{
		ID:        uuid.New().String(),
		Token:     refresh,
		FamilyID:  familyID,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
		CreatedAt: time.Now().UTC(),
	}
	if err := tokens.Create(ctx, rec); err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
	}, nil
}

func revocationEvent(userID, familyID, reason string) event.Event {
	ev := event.New(event.TypeFamilyRevoked)
	ev.UserID = userID
	ev.FamilyID = familyID
	ev.Reason = reason
	return ev
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	return nil
}
