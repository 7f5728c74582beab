// Package event carries in-process domain events between modules. Services
// collect events while a transaction is open and publish them only after the
// transaction commits, so listeners never observe rolled-back state.
package event

import "time"

// Type identifies the type of a domain event.
type Type string

const (
	// TypeUserRegistered records a newly created account.
	TypeUserRegistered Type = "user.registered"
	// TypeUserLoggedIn records a successful login.
	TypeUserLoggedIn Type = "user.logged_in"
	// TypeReplayDetected records redemption of a refresh token that was
	// already consumed or revoked.
	TypeReplayDetected Type = "token.replay_detected"
	// TypeFamilyRevoked records bulk revocation of a refresh token family.
	TypeFamilyRevoked Type = "token.family_revoked"
)

// Event is a single domain event.
type Event struct {
	Type       Type
	UserID     string
	Email      string
	FamilyID   string
	Reason     string
	OccurredAt time.Time
}

// New returns an event of the given type stamped with the current time.
func New(t Type) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC()}
}
