package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"identity-service/internal/event"
	"identity-service/internal/telemetry/producer"
)

type chanProducer struct {
	ch chan *producer.SecurityEvent
}

func (p *chanProducer) Emit(ctx context.Context, e *producer.SecurityEvent) error {
	p.ch <- e
	return nil
}

func (p *chanProducer) Close() error { return nil }

func TestSecurityListener_EmitsRevocations(t *testing.T) {
	p := &chanProducer{ch: make(chan *producer.SecurityEvent, 2)}
	l := NewSecurityListener(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
	bus := event.NewBus()
	l.Register(bus)

	ev := event.New(event.TypeFamilyRevoked)
	ev.UserID = "u1"
	ev.FamilyID = "f1"
	ev.Reason = "replay"
	bus.Publish(context.Background(), ev)

	select {
	case got := <-p.ch:
		if got.EventType != string(event.TypeFamilyRevoked) || got.UserID != "u1" || got.FamilyID != "f1" || got.Reason != "replay" {
			t.Errorf("event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no event emitted")
	}

	// Unrelated events are not shipped.
	bus.Publish(context.Background(), event.New(event.TypeUserLoggedIn))
	select {
	case got := <-p.ch:
		t.Errorf("unexpected event: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}
