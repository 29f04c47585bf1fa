// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"iter"
	"slices"
	"sync"
)

// MaxPendingEvents is the maximum number of unconsumed events allowed
// per subscription before the subscriber is dropped.
const MaxPendingEvents = 8192

// Emitter broadcasts values of type T to any number of subscribers.
//
// Emitting is best-effort and never blocks: each subscriber has a
// bounded buffer, and a subscriber that falls behind (or has dropped
// its handle) is removed permanently on the next delivery attempt
// rather than stalling producers. The zero value is ready for use.
//
// An Emitter is typically created once at node startup and shared by
// every subsystem that publishes events.
type Emitter[T any] struct {
	mu       sync.Mutex
	closed   bool
	subs     []*sendSide[T]
	capacity int // per-subscriber buffer size; 0 means MaxPendingEvents
}

type sendSide[T any] struct {
	ch      chan T
	dropped chan struct{} // closed by Subscription.Close
	dead    bool          // delivery failed; reaped on the next Emit
}

// NewEmitter returns a new Emitter with the default per-subscriber
// capacity of MaxPendingEvents.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

func newEmitter[T any](capacity int) *Emitter[T] {
	return &Emitter[T]{capacity: capacity}
}

// Emit delivers a copy of event to every current subscriber. It never
// blocks and never fails. A subscriber whose buffer is full, or whose
// handle has been closed, is removed from the registry and receives
// no further events; its channel is closed so the consumer observes
// end-of-stream rather than silence.
func (e *Emitter[T]) Emit(event T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// Reap subscribers whose delivery failed on an earlier Emit.
	// Removal lags the failure by one call, so Subscriptions reports
	// the failed subscriber until the next Emit.
	e.subs = slices.DeleteFunc(e.subs, func(s *sendSide[T]) bool { return s.dead })
	for _, s := range e.subs {
		select {
		case <-s.dropped:
			s.dead = true
			close(s.ch)
			continue
		default:
		}
		select {
		case s.ch <- event:
		default:
			// Buffer full: the subscriber is sacrificed so that
			// producers never stall.
			s.dead = true
			close(s.ch)
		}
	}
}

// Subscribe registers a new subscriber and returns its receive
// handle. The subscription observes only events emitted after this
// call; there is no replay. If the Emitter is already closed, the
// returned subscription is immediately at end-of-stream.
func (e *Emitter[T]) Subscribe() *Subscription[T] {
	capacity := e.capacity
	if capacity == 0 {
		capacity = MaxPendingEvents
	}
	s := &sendSide[T]{
		ch:      make(chan T, capacity),
		dropped: make(chan struct{}),
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(s.ch)
	} else {
		e.subs = append(e.subs, s)
	}
	return &Subscription[T]{ch: s.ch, dropped: s.dropped}
}

// Subscriptions returns the number of registered subscribers. It
// reflects pruning performed by past Emit calls, not a live probe of
// subscriber health: a dead subscriber still counts until the next
// delivery attempt discovers it.
func (e *Emitter[T]) Subscriptions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Pending returns the total number of events enqueued across all
// subscribers but not yet consumed.
func (e *Emitter[T]) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, s := range e.subs {
		n += len(s.ch)
	}
	return n
}

// Close shuts the Emitter down, closing every subscription. Events
// already buffered remain consumable; after draining them each
// subscriber observes end-of-stream. Close is idempotent.
func (e *Emitter[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, s := range e.subs {
		if !s.dead {
			close(s.ch)
		}
	}
	e.subs = nil
}

// Subscription is the receive side of one subscriber. It is owned by
// a single consumer; sharing one across goroutines requires external
// synchronization.
type Subscription[T any] struct {
	ch      chan T
	dropped chan struct{}
	once    sync.Once
}

// Events is a subscription to the node event stream.
type Events = Subscription[Event]

// Chan returns the receive endpoint. The channel is closed when the
// Emitter shuts down or when this subscriber is pruned for falling
// behind.
func (s *Subscription[T]) Chan() <-chan T { return s.ch }

// All returns the subscription's events as a lazy ordered sequence,
// blocking between events and ending when the send side is closed.
// The sequence is not restartable: values consumed by one iteration
// are never yielded again.
func (s *Subscription[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for ev := range s.ch {
			if !yield(ev) {
				return
			}
		}
	}
}

// Close withdraws the subscription. The Emitter discovers the
// withdrawal lazily, on its next delivery attempt. Close is
// idempotent and safe to call concurrently with receives.
func (s *Subscription[T]) Close() {
	s.once.Do(func() { close(s.dropped) })
}
