package telemetry

import (
	"context"
	"log/slog"
	"time"

	"identity-service/internal/event"
	"identity-service/internal/telemetry/producer"
)

// SecurityListener ships replay and revocation events to the security topic.
// Emission is best-effort and asynchronous: a slow broker never delays the
// auth path.
type SecurityListener struct {
	producer producer.Producer
	log      *slog.Logger
}

func NewSecurityListener(p producer.Producer, log *slog.Logger) *SecurityListener {
	return &SecurityListener{producer: p, log: log}
}

// Register subscribes the listener on the bus. No-op when the producer is
// disabled.
func (l *SecurityListener) Register(bus *event.Bus) {
	if l.producer == nil {
		return
	}
	bus.Subscribe(event.TypeReplayDetected, l.emit)
	bus.Subscribe(event.TypeFamilyRevoked, l.emit)
}

func (l *SecurityListener) emit(_ context.Context, e event.Event) {
	se := &producer.SecurityEvent{
		EventType: string(e.Type),
		UserID:    e.UserID,
		FamilyID:  e.FamilyID,
		Reason:    e.Reason,
		Source:    "auth_service",
		CreatedAt: e.OccurredAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.producer.Emit(ctx, se); err != nil {
			l.log.Error("security event emit failed", "event_type", se.EventType, "error", err)
		}
	}()
}
