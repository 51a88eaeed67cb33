// Package broadcast is an in-process change signal. Publishers announce that
// something in a collection changed; subscribers re-fetch. No payload is
// carried.
package broadcast

import (
	"slices"
	"sync"
)

// Handler reacts to one event.
type Handler func(event string)

type subscription struct {
	id uint64
	fn Handler
}

// Bus delivers events synchronously, in registration order, on the
// publishing goroutine. The zero value is ready to use.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]subscription
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn for event and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(event string, fn Handler) (unsubscribe func()) {
	return b.SubscribeAny(fn, event)
}

// SubscribeAny registers fn once for several events. A Publish naming more
// than one of them still calls fn a single time, with the first match.
func (b *Bus) SubscribeAny(fn Handler, events ...string) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[string][]subscription)
	}
	b.nextID++
	id := b.nextID
	events = slices.Compact(slices.Clone(events))
	for _, event := range events {
		b.subs[event] = append(b.subs[event], subscription{id: id, fn: fn})
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, event := range events {
			b.subs[event] = slices.DeleteFunc(b.subs[event], func(s subscription) bool {
				return s.id == id
			})
			if len(b.subs[event]) == 0 {
				delete(b.subs, event)
			}
		}
	}
}

// Publish fires each event in turn. Every subscription runs at most once per
// call. Handlers run outside the lock, so they may subscribe, unsubscribe or
// publish themselves.
func (b *Bus) Publish(events ...string) {
	delivered := make(map[uint64]struct{})
	for _, event := range events {
		b.mu.Lock()
		handlers := slices.Clone(b.subs[event])
		b.mu.Unlock()

		for _, s := range handlers {
			if _, done := delivered[s.id]; done {
				continue
			}
			delivered[s.id] = struct{}{}
			s.fn(event)
		}
	}
}

// Subscribers reports how many handlers listen for event.
func (b *Bus) Subscribers(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[event])
}
