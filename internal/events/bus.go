package events

import (
	"fmt"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// TopicSessionExpired is published by the API pipeline when the server
// rejects the stored credential.
const TopicSessionExpired = "session:expired"

// SessionExpired carries the message a notification component should show.
type SessionExpired struct {
	Message string
	Status  int
	Path    string
	At      time.Time
}

// Bus is the process-wide publish/subscribe channel. Publishers never know
// who listens; listeners never call back into publishers.
//
// EventBus identifies callbacks by code pointer, so closures built from the
// same function literal are indistinguishable to it. Listeners are therefore
// kept here under their own ids and EventBus carries a single fan-out
// callback per topic.
type Bus struct {
	bus evbus.Bus

	mu      sync.RWMutex
	nextID  uint64
	expired []expiredListener
}

type expiredListener struct {
	id uint64
	fn func(SessionExpired)
}

func New() *Bus {
	b := &Bus{bus: evbus.New()}
	// a fresh bus never rejects a func callback
	_ = b.bus.Subscribe(TopicSessionExpired, b.dispatchExpired)
	return b
}

// PublishSessionExpired delivers ev synchronously to every subscriber.
// Handlers must not publish on the same bus while handling.
func (b *Bus) PublishSessionExpired(ev SessionExpired) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.bus.Publish(TopicSessionExpired, ev)
}

func (b *Bus) dispatchExpired(ev SessionExpired) {
	b.mu.RLock()
	listeners := make([]expiredListener, len(b.expired))
	copy(listeners, b.expired)
	b.mu.RUnlock()

	for _, l := range listeners {
		l.fn(ev)
	}
}

// OnSessionExpired registers fn and returns a function that removes exactly
// that registration. Calling the returned function twice is harmless.
func (b *Bus) OnSessionExpired(fn func(SessionExpired)) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("events: nil handler")
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.expired = append(b.expired, expiredListener{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.expired {
			if l.id == id {
				b.expired = append(b.expired[:i:i], b.expired[i+1:]...)
				return
			}
		}
	}, nil
}

// HasSessionListeners reports whether anyone is subscribed.
func (b *Bus) HasSessionListeners() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.expired) > 0
}
