package event

import (
	"context"
	"sync"
)

// Handler receives published events. Handlers must not block; slow work
// belongs in the handler's own goroutine.
type Handler func(ctx context.Context, e Event)

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus is an in-process publisher that fans events out to subscribed handlers.
// Handlers run synchronously in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the event to all matching handlers.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	matched := b.handlers[e.Type]
	all := b.all
	b.mu.RUnlock()

	for _, h := range matched {
		h(ctx, e)
	}
	for _, h := range all {
		h(ctx, e)
	}
}

// Collector buffers events during a transaction. The owning service calls
// Flush only after the transaction commits; on rollback the buffer is dropped.
type Collector struct {
	events []Event
}

// Add buffers an event for later publication.
func (c *Collector) Add(e Event) {
	c.events = append(c.events, e)
}

// Flush publishes the buffered events in order and empties the buffer.
func (c *Collector) Flush(ctx context.Context, p Publisher) {
	for _, e := range c.events {
		p.Publish(ctx, e)
	}
	c.events = nil
}
