// Package csp provides the bounded, close-aware queues the sync
// pipelines and the store's change bus are built on. Shutdown is
// cooperative: closing one end of a connected pair is the signal for
// the other end to close too.
package csp

import (
	"errors"
	"sync"
)

// DefaultCapacity is the buffer size used for pipeline queues
const DefaultCapacity = 1000

// ErrClosed is returned by Put once the queue has been closed
var ErrClosed = errors.New("queue is closed")

// Queue is a bounded FIFO with an explicit close flag. Close is
// two-phase: further Puts are rejected immediately, while buffered
// items remain poppable until drained.
type Queue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	items    []T
	capacity int
	closed   bool
}

// NewQueue creates a queue with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue[T]{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Put appends an item, blocking while the queue is full.
// Returns ErrClosed if the queue is closed before the item is accepted.
func (q *Queue[T]) Put(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrClosed
	}

	q.items = append(q.items, v)
	q.notEmpty.Signal()
	return nil
}

// Pop removes the oldest item, blocking while the queue is empty and
// open. After Close, buffered items are still delivered; once drained,
// Pop reports ok=false.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return v, true
}

// Close marks the queue closed and wakes all blocked producers and
// consumers. Closing an already-closed queue is a no-op.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Closed reports whether Close has been called
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len reports the number of buffered items
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
