package csp

import "sync"

// Broadcast fans a source queue out to independently-buffered
// subscriber queues. Items popped from the source are delivered to
// every live subscriber in arrival order; a full subscriber queue
// suspends the fan-out until space frees. Closing the source closes
// every subscriber; a subscriber closed by its consumer is detached
// without affecting the source or the other subscribers.
type Broadcast[T any] struct {
	source   *Queue[T]
	capacity int

	mu   sync.Mutex
	subs []*Queue[T]
	done bool
}

// NewBroadcast starts the fan-out task over the source queue.
// Subscriber queues are created with the given capacity.
func NewBroadcast[T any](source *Queue[T], capacity int) *Broadcast[T] {
	b := &Broadcast[T]{source: source, capacity: capacity}
	go b.run()
	return b
}

// Subscribe attaches a fresh subscriber queue. If the source has
// already closed, the returned queue is closed as well.
func (b *Broadcast[T]) Subscribe() *Queue[T] {
	sub := NewQueue[T](b.capacity)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		sub.Close()
		return sub
	}
	b.subs = append(b.subs, sub)
	return sub
}

func (b *Broadcast[T]) run() {
	for {
		v, ok := b.source.Pop()
		if !ok {
			b.shutdown()
			return
		}

		b.mu.Lock()
		subs := make([]*Queue[T], len(b.subs))
		copy(subs, b.subs)
		b.mu.Unlock()

		for _, sub := range subs {
			if err := sub.Put(v); err != nil {
				// consumer closed its end, detach it
				b.detach(sub)
			}
		}
	}
}

func (b *Broadcast[T]) detach(sub *Queue[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *Broadcast[T]) shutdown() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.done = true
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
