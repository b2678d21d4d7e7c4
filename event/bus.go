package event

import (
	"sync"
)

// Handler receives an event payload.
type Handler func(payload any)

type subscription struct {
	id      uint64
	handler Handler
	once    bool
}

// Bus is a synchronous, name-keyed publish/subscribe hub. Handlers run on
// the emitting goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// On subscribes h to name and returns a function that removes it.
func (b *Bus) On(name string, h Handler) func() {
	return b.add(name, h, false)
}

// Once subscribes h to the next emission of name only.
func (b *Bus) Once(name string, h Handler) func() {
	return b.add(name, h, true)
}

// Emit delivers payload to every handler subscribed to name. Handlers
// subscribed during delivery see the next emission, not this one.
func (b *Bus) Emit(name string, payload any) {
	b.mu.Lock()
	subs := b.subs[name]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	kept := subs[:0:0]
	for _, s := range subs {
		if !s.once {
			kept = append(kept, s)
		}
	}
	if len(kept) != len(subs) {
		b.subs[name] = kept
	}
	b.mu.Unlock()

	for _, s := range snapshot {
		s.handler(payload)
	}
}

// Listeners returns the number of handlers subscribed to name.
func (b *Bus) Listeners(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

func (b *Bus) add(name string, h Handler, once bool) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: h, once: once})
	b.mu.Unlock()

	var removed sync.Once
	return func() {
		removed.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
