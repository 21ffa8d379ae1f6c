package profile

import (
	"sync"

	"pkt.systems/pslog"
)

// EventType identifies a store change.
type EventType string

const (
	// EventAdded is published after a profile is added.
	EventAdded EventType = "added"
	// EventUpdated is published after a profile is updated.
	EventUpdated EventType = "updated"
	// EventRemoved is published after a profile is removed.
	EventRemoved EventType = "removed"
	// EventActivated is published after the active profile changes.
	EventActivated EventType = "activated"
)

// Event describes a persisted store change.
type Event struct {
	Type      EventType
	ProfileID string
}

// Handler receives store events.
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus delivers events synchronously to subscribers in subscription order.
type Bus struct {
	mu   sync.Mutex
	subs []subscription
	next int
	log  pslog.Logger
}

// NewBus constructs a Bus.
func NewBus(logger pslog.Logger) *Bus {
	return &Bus{log: logger}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	if b == nil || h == nil {
		return func() {}
	}
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, handler: h})
	count := len(b.subs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.Debug("profile bus subscribe", "subs", count)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every current subscriber before returning.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	if b.log != nil {
		b.log.Trace("profile event", "type", e.Type, "profile", e.ProfileID, "subs", len(subs))
	}
	for _, s := range subs {
		s.handler(e)
	}
}
