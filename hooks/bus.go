// Package hooks implements the fan-out callback bus that session.Callbacks'
// lifecycle callbacks (OnMessageReceived, OnToolCalling, ...) are delivered
// through. Callbacks.Subscriber wraps the callback fields in a Subscriber so a host
// can plug arbitrary observers without the worker/processor packages knowing
// about them.
package hooks

import (
	"context"
	"errors"
	"sync"
)

type (
	// Bus publishes lifecycle events to every registered subscriber in a
	// synchronous fan-out. Delivery stops at the first subscriber error so a
	// critical subscriber (e.g. persistence of a stream chunk) can halt
	// propagation.
	Bus interface {
		// Publish delivers event to every currently registered subscriber,
		// stopping at the first error. The order in which subscribers receive
		// an event is not defined and does not follow registration order.
		Publish(ctx context.Context, event Event) error
		// Register adds sub to the bus and returns a Subscription that
		// removes it when closed.
		Register(sub Subscriber) (Subscription, error)
	}

	// Subscriber reacts to published lifecycle events.
	Subscriber interface {
		HandleEvent(ctx context.Context, event Event) error
	}

	// SubscriberFunc adapts a plain function to Subscriber.
	SubscriberFunc func(ctx context.Context, event Event) error

	// Subscription represents an active registration; Close is idempotent.
	Subscription interface {
		Close() error
	}

	bus struct {
		mu          sync.RWMutex
		subscribers map[*subscription]Subscriber
	}

	subscription struct {
		bus  *bus
		once sync.Once
	}
)

func (f SubscriberFunc) HandleEvent(ctx context.Context, event Event) error { return f(ctx, event) }

// NewBus constructs an empty, ready-to-use Bus.
func NewBus() Bus {
	return &bus{subscribers: make(map[*subscription]Subscriber)}
}

func (b *bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()
	for _, sub := range subs {
		if err := sub.HandleEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *bus) Register(sub Subscriber) (Subscription, error) {
	if sub == nil {
		return nil, errors.New("subscriber is required")
	}
	s := &subscription{bus: b}
	b.mu.Lock()
	b.subscribers[s] = sub
	b.mu.Unlock()
	return s, nil
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subscribers, s)
		s.bus.mu.Unlock()
	})
	return nil
}
