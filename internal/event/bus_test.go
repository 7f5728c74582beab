package event

import (
	"context"
	"testing"
)

func TestBus_PublishToSubscribers(t *testing.T) {
	bus := NewBus()
	var got []Type
	bus.Subscribe(TypeUserRegistered, func(ctx context.Context, e Event) {
		got = append(got, e.Type)
	})
	bus.SubscribeAll(func(ctx context.Context, e Event) {
		got = append(got, "all:"+e.Type)
	})

	bus.Publish(context.Background(), New(TypeUserRegistered))
	bus.Publish(context.Background(), New(TypeUserLoggedIn))

	want := []Type{TypeUserRegistered, "all:" + TypeUserRegistered, "all:" + TypeUserLoggedIn}
	if len(got) != len(want) {
		t.Fatalf("deliveries: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivery %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollector_FlushPublishesInOrderThenEmpties(t *testing.T) {
	bus := NewBus()
	var got []Type
	bus.SubscribeAll(func(ctx context.Context, e Event) {
		got = append(got, e.Type)
	})

	var c Collector
	c.Add(New(TypeUserRegistered))
	c.Add(New(TypeUserLoggedIn))
	c.Flush(context.Background(), bus)

	if len(got) != 2 || got[0] != TypeUserRegistered || got[1] != TypeUserLoggedIn {
		t.Fatalf("flush order: got %v", got)
	}

	c.Flush(context.Background(), bus)
	if len(got) != 2 {
		t.Error("second flush republished events")
	}
}

func TestCollector_DroppedWithoutFlush(t *testing.T) {
	bus := NewBus()
	delivered := 0
	bus.SubscribeAll(func(ctx context.Context, e Event) { delivered++ })

	var c Collector
	c.Add(New(TypeUserRegistered))
	// No Flush: simulates a rolled-back transaction.
	if delivered != 0 {
		t.Errorf("events delivered without flush: %d", delivered)
	}
}
