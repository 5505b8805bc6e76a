// Package session implements the token lifecycle core of the SDK: durable
// token storage, single-flight refresh coordination, background renewal,
// and the derived session view.
package session

import "sync"

// Event identifies a session-level notification.
type Event string

const (
	// EventSessionChanged fires after every token store mutation.
	EventSessionChanged Event = "session-changed"

	// EventProfileUpdated fires after the user's profile record changes upstream.
	EventProfileUpdated Event = "profile-updated"
)

// Bus is an observer registry for session events, shared by every component
// wired to the same Store. Delivery is synchronous: Publish invokes each
// subscriber in subscription order before returning.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(Event)
}

// NewBus returns an empty registry.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it again.
// Unsubscribing is idempotent.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers evt to every current subscriber. Callers must not hold
// locks that a subscriber could need.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(evt)
	}
}
