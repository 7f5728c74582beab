package security

import (
	"golang.org/x/crypto/bcrypt"
)

// DummyHash is a bcrypt hash of a random throwaway string. Login compares
// against it when the account does not exist, so a missing account costs the
// same time as a wrong password and email existence cannot be probed.
// It must never match any real password.
const DummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside the
// bcrypt range fall back to the default: clamping a misconfigured cost to
// MaxCost would make every login take hours instead of failing safe.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a salted bcrypt hash of password. Two calls on the same input
// produce different hashes. Returns the hash as a string suitable for storage.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash in constant time with
// respect to the password content. Returns true on match.
func (h *Hasher) Compare(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
