package engine

import (
	"sync"
	"time"
)

// SubscriberID identifies a bus subscription for later removal.
type SubscriberID uint64

// SubscriberFunc receives events on the emitting goroutine.
type SubscriberFunc func(Event)

type busSub struct {
	id   SubscriberID
	only map[EventType]bool
	fn   SubscriberFunc
}

// EventBus fans domain events out to subscribers synchronously, in
// subscription order. Handlers must not block; the SSE hub buffers on
// its own side.
type EventBus struct {
	mu     sync.RWMutex
	nextID SubscriberID
	subs   []busSub
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers fn for every event type.
func (b *EventBus) Subscribe(fn SubscriberFunc) SubscriberID {
	return b.add(fn, nil)
}

// SubscribeTypes registers fn for the listed event types only.
func (b *EventBus) SubscribeTypes(fn SubscriberFunc, types ...EventType) SubscriberID {
	only := make(map[EventType]bool, len(types))
	for _, t := range types {
		only[t] = true
	}
	return b.add(fn, only)
}

func (b *EventBus) add(fn SubscriberFunc, only map[EventType]bool) SubscriberID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, busSub{id: b.nextID, only: only, fn: fn})
	return b.nextID
}

// Unsubscribe removes a subscription. Unknown IDs are a no-op.
func (b *EventBus) Unsubscribe(id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.subs {
		if b.subs[i].id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit stamps and delivers evt to every matching subscriber. The
// subscriber list is copied so handlers may subscribe or unsubscribe
// without deadlocking.
func (b *EventBus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.RLock()
	subs := append([]busSub(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.only == nil || s.only[evt.Type] {
			s.fn(evt)
		}
	}
}

// EmitType is shorthand for Emit with just a type and payload.
func (b *EventBus) EmitType(t EventType, payload any) {
	b.Emit(Event{Type: t, Payload: payload})
}
