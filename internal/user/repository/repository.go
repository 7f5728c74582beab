package repository

import (
	"context"
	"errors"

	"identity-service/internal/user/domain"
)

// ErrDuplicateEmail is returned by Create when another user already holds the email.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	Delete(ctx context.Context, id string) error
}
