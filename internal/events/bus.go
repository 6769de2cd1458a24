package events

import (
	"slices"
	"sync"
)

// Handler receives an event synchronously on the publishing goroutine.
type Handler func(Event)

// Publisher is the interface the cache uses to announce changes.
type Publisher interface {
	Emit(event Event)
}

// Subscriber registers handlers. The returned func removes the registration
// and is safe to call more than once.
type Subscriber interface {
	Subscribe(t Type, h Handler) (unsubscribe func())
	SubscribeAll(h Handler) (unsubscribe func())
}

// EventBus is both ends of the channel.
type EventBus interface {
	Publisher
	Subscriber
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe registry.
// Handlers run in registration order; typed handlers run before catch-all handlers.
// Events published before a handler registers are not replayed.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	byType   map[Type][]registration
	catchAll []registration
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{byType: make(map[Type][]registration)}
}

// Subscribe registers h for events of type t.
func (b *Bus) Subscribe(t Type, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.byType[t] = append(b.byType[t], registration{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.byType[t] = without(b.byType[t], id)
	}
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.catchAll = append(b.catchAll, registration{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.catchAll = without(b.catchAll, id)
	}
}

// Emit delivers event to its subscribers. Handlers are called without the bus lock held,
// so they may subscribe or unsubscribe.
func (b *Bus) Emit(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.byType[event.Type])+len(b.catchAll))
	for _, r := range b.byType[event.Type] {
		handlers = append(handlers, r.handler)
	}
	for _, r := range b.catchAll {
		handlers = append(handlers, r.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// On subscribes a handler that receives the event payload already asserted to T.
// Events whose payload is not a T are ignored.
func On[T any](s Subscriber, t Type, fn func(T)) func() {
	return s.Subscribe(t, func(e Event) {
		if data, ok := e.Data.(T); ok {
			fn(data)
		}
	})
}

func without(regs []registration, id uint64) []registration {
	return slices.DeleteFunc(slices.Clone(regs), func(r registration) bool {
		return r.id == id
	})
}
