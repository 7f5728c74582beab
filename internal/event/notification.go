package event

import (
	"context"
	"log/slog"
)

// NotificationListener reacts to account lifecycle events. It stands in for
// an outbound notification channel (welcome email, login alert) and only
// logs; delivery happens out of band.
type NotificationListener struct {
	log *slog.Logger
}

func NewNotificationListener(log *slog.Logger) *NotificationListener {
	return &NotificationListener{log: log}
}

// Register subscribes the listener on the bus.
func (l *NotificationListener) Register(bus *Bus) {
	bus.Subscribe(TypeUserRegistered, l.onRegistered)
	bus.Subscribe(TypeUserLoggedIn, l.onLoggedIn)
}

func (l *NotificationListener) onRegistered(ctx context.Context, e Event) {
	l.log.InfoContext(ctx, "welcome notification queued", "user_id", e.UserID, "email", e.Email)
}

func (l *NotificationListener) onLoggedIn(ctx context.Context, e Event) {
	l.log.InfoContext(ctx, "login recorded", "user_id", e.UserID)
}
