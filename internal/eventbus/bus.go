// Package eventbus provides a frame-deferred publish/subscribe bus.
//
// Publish only enqueues. Flush, called once per frame by the owner,
// dispatches everything queued since the previous Flush in publish order.
// This decouples listeners that may be slow or re-entrant from the
// synchronous stat recompute path.
package eventbus

import (
	"log/slog"
	"sync"
)

// Handle identifies a subscription. Zero is never issued.
type Handle uint64

// Bus queues events of type E until Flush.
//
// Thread-safe: Publish and Subscribe may be called from any goroutine.
// Listeners run on the goroutine calling Flush, outside the lock.
type Bus[E any] struct {
	mu        sync.Mutex
	queue     []E
	listeners []slot[E]
	next      Handle
	capacity  int
	dropped   uint64
}

type slot[E any] struct {
	handle Handle
	fn     func(E)
}

// New creates a bus holding at most capacity pending events.
// capacity <= 0 means unbounded.
func New[E any](capacity int) *Bus[E] {
	return &Bus[E]{capacity: capacity}
}

// Subscribe registers fn and returns its handle. A nil fn yields 0.
func (b *Bus[E]) Subscribe(fn func(E)) Handle {
	if fn == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.listeners = append(b.listeners, slot[E]{handle: b.next, fn: fn})
	return b.next
}

// Unsubscribe removes the listener identified by h.
// Returns false if h is unknown.
func (b *Bus[E]) Unsubscribe(h Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.listeners {
		if s.handle == h {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Publish enqueues e for the next Flush. When the queue is full the event
// is dropped and counted.
func (b *Bus[E]) Publish(e E) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capacity > 0 && len(b.queue) >= b.capacity {
		b.dropped++
		return
	}
	b.queue = append(b.queue, e)
}

// Flush dispatches every queued event to every listener and returns the
// number of events dispatched. Events published by listeners during Flush
// wait for the next Flush.
func (b *Bus[E]) Flush() int {
	b.mu.Lock()
	pending := b.queue
	b.queue = nil
	listeners := b.listeners
	dropped := b.dropped
	b.dropped = 0
	b.mu.Unlock()

	if dropped > 0 {
		slog.Warn("event bus queue overflow", "dropped", dropped)
	}

	for _, e := range pending {
		for _, s := range listeners {
			s.fn(e)
		}
	}
	return len(pending)
}

// Pending returns the number of queued events.
func (b *Bus[E]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
