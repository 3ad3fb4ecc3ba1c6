// Package watch provides a latest-value channel.
//
// A Value holds at most one pending element. Publish never blocks: a newer
// value replaces an unread older one, so a slow consumer always observes the
// most recent value and the publisher's cadence is decoupled from the
// consumer's render cadence.
package watch

import "sync"

// Value is a single-slot, last-write-wins channel.
// Safe for concurrent use by one or more publishers and consumers.
type Value[T any] struct {
	mu     sync.Mutex // serializes drain+send and close
	ch     chan T
	closed bool
}

// New creates an empty Value.
func New[T any]() *Value[T] {
	return &Value[T]{ch: make(chan T, 1)}
}

// Publish stores v as the pending value, discarding any unread one.
// Publishing after Close is a no-op.
func (v *Value[T]) Publish(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	select {
	case <-v.ch:
	default:
	}
	v.ch <- x
}

// C returns the receive side. It is closed after Close once the pending
// value, if any, has been received.
func (v *Value[T]) C() <-chan T {
	return v.ch
}

// Close stops further publishes and closes the channel.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	close(v.ch)
}
