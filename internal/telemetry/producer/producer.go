// Package producer emits security events to an external broker. Callers use
// it best-effort: log and ignore errors.
package producer

import (
	"context"
	"time"
)

// SecurityEvent is the JSON shape shipped to the security topic.
type SecurityEvent struct {
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id,omitempty"`
	FamilyID  string    `json:"family_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Producer emits security events.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call from
	// a goroutine if needed. Callers typically log and ignore the error.
	Emit(ctx context.Context, event *SecurityEvent) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}
