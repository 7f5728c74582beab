package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"identity-service/internal/dbx"
	"identity-service/internal/token/domain"
)

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a refresh token repository over the given db.
// The db may be a *sql.DB or a transaction; rotation must pass a transaction.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tokenColumns = `id, token, family_id, user_id, expires_at, created_at`

func scanToken(row interface{ Scan(...any) error }) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := row.Scan(&t.ID, &t.Token, &t.FamilyID, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Find returns the ledger entry for the token string, or nil if absent.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM refresh_tokens WHERE token = $1`, token)
	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// FindForUpdate returns the ledger entry with an exclusive row lock, or nil if
// absent. Concurrent redemptions of the same token serialize on this lock.
func (r *PostgresRepository) FindForUpdate(ctx context.Context, token string) (*domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM refresh_tokens WHERE token = $1 FOR UPDATE`, token)
	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// Create inserts a new ledger entry. Entries are insert-only; rotation never
// updates a row in place.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, token, family_id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Token, t.FamilyID, t.UserID, t.ExpiresAt, t.CreatedAt,
	)
	return err
}

// DeleteByToken removes a single ledger entry.
func (r *PostgresRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}

// DeleteByFamily removes every token in a family and returns the count.
func (r *PostgresRepository) DeleteByFamily(ctx context.Context, familyID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE family_id = $1`, familyID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByUser removes every token owned by a user and returns the count.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpiredBefore removes tokens whose expiry precedes the cutoff.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
