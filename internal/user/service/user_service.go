package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"identity-service/internal/audit"
	auditdomain "identity-service/internal/audit/domain"
	"identity-service/internal/security"
	"identity-service/internal/user/domain"
	userrepo "identity-service/internal/user/repository"
)

// Sentinel errors for the user service; the handler maps them to HTTP status codes.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("current password is incorrect")
	ErrEmailTaken    = errors.New("email already registered")

	// ErrValidation wraps input validation failures; the handler maps it to 400.
	ErrValidation = errors.New("validation failed")
)

// TokenRevoker removes every outstanding refresh token a user owns. Password
// changes call it so stolen sessions do not outlive the credential they were
// minted under.
type TokenRevoker interface {
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// UserService implements profile self-service and admin account management.
type UserService struct {
	users   userrepo.Repository
	tokens  TokenRevoker
	hasher  *security.Hasher
	auditor audit.AuditLogger
}

// NewUserService returns a UserService with the given dependencies.
func NewUserService(users userrepo.Repository, tokens TokenRevoker, hasher *security.Hasher, auditor audit.AuditLogger) *UserService {
	return &UserService{users: users, tokens: tokens, hasher: hasher, auditor: auditor}
}

// Get returns the user by id, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateName changes the user's display name.
func (s *UserService) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Name = strings.TrimSpace(name)
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the user's password after verifying the current
// one, and revokes every outstanding refresh token the user holds.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(u.PasswordHash, current) {
		return ErrWrongPassword
	}
	if len(next) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, id, hashed); err != nil {
		return err
	}
	if _, err := s.tokens.DeleteByUser(ctx, id); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, id, auditdomain.ActionPasswordChange, "user", "")
	return nil
}

// List returns users for the admin listing, newest first. Limit is clamped
// to [1, 100].
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// AdminUpdate changes name and/or email of any account. Empty fields are
// left untouched. An email collision fails with ErrEmailTaken.
func (s *UserService) AdminUpdate(ctx context.Context, id, name, email string) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		u.Name = name
	}
	if email = strings.TrimSpace(strings.ToLower(email)); email != "" && email != u.Email {
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
		u.Email = email
		u.EmailVerified = false
	}
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// AdminDelete removes the account. Refresh tokens go with it via the foreign
// key cascade; the explicit revocation keeps other stores honest.
func (s *UserService) AdminDelete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.tokens.DeleteByUser(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// AdminResetPassword sets a new password without knowing the old one and
// revokes all of the target's refresh tokens.
func (s *UserService) AdminResetPassword(ctx context.Context, id, next string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if len(next) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, id, hashed); err != nil {
		return err
	}
	if _, err := s.tokens.DeleteByUser(ctx, id); err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, id, auditdomain.ActionPasswordReset, "user", "")
	return nil
}
