package shared

import (
	"context"
	"sync"
)

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in.
	// An empty slice means the handler receives all events.
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish publishes one or more domain events
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber subscribes to domain events
type EventSubscriber interface {
	// Subscribe registers a handler for specific event types.
	// If no event types are provided, the handler receives all events.
	Subscribe(handler EventHandler, eventTypes ...string)
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// InMemoryEventBus is a synchronous in-process event bus. Handler errors are
// collected but do not stop delivery to other handlers.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler // event type -> handlers; "" means all events
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for the given event types
func (b *InMemoryEventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(eventTypes) == 0 {
		b.handlers[""] = append(b.handlers[""], handler)
		return
	}
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
}

// Publish delivers the events synchronously to all matching handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var firstErr error
	for _, event := range events {
		targets := make([]EventHandler, 0, len(b.handlers[event.EventType()])+len(b.handlers[""]))
		targets = append(targets, b.handlers[event.EventType()]...)
		targets = append(targets, b.handlers[""]...)
		for _, h := range targets {
			if err := h.Handle(ctx, event); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

var _ EventBus = (*InMemoryEventBus)(nil)
