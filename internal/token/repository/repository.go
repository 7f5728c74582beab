package repository

import (
	"context"
	"time"

	"identity-service/internal/token/domain"
)

// Repository defines persistence for the refresh token ledger.
type Repository interface {
	// Find returns the ledger entry for the token string, or nil if absent.
	Find(ctx context.Context, token string) (*domain.RefreshToken, error)
	// FindForUpdate is Find with an exclusive row lock, for use inside a
	// transaction that will consume the token.
	FindForUpdate(ctx context.Context, token string) (*domain.RefreshToken, error)
	Create(ctx context.Context, t *domain.RefreshToken) error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByFamily removes every token in a family and returns the count.
	DeleteByFamily(ctx context.Context, familyID string) (int64, error)
	// DeleteByUser removes every token owned by a user and returns the count.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	// DeleteExpiredBefore removes tokens whose expiry precedes the cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
