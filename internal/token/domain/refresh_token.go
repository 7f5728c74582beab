package domain

import "time"

// RefreshToken is one ledger entry for an outstanding refresh token.
// A row exists only while the token is redeemable: rotation deletes the
// consumed row and inserts the replacement, revocation deletes rows in bulk.
type RefreshToken struct {
	ID        string
	Token     string
	FamilyID  string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token's lifetime has passed at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
