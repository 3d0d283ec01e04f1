// Package database is the local source of truth for known events: a
// deduplicating store over a pluggable persistence adapter, plus a
// multicast change bus every subscriber reads independently.
package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/paul/wannsee/pkg/csp"
	"github.com/paul/wannsee/pkg/event"
	"github.com/paul/wannsee/pkg/storage"
)

// Database deduplicates and persists events, broadcasting each newly
// stored event to all live subscribers exactly once. It trusts the
// events it is handed; signature verification happens upstream.
type Database struct {
	store          storage.Store
	sourceOfChange *csp.Queue[*event.Event]
	caster         *csp.Broadcast[*event.Event]
	capacity       int
}

// New creates a database over the given persistence adapter
func New(store storage.Store) *Database {
	return NewWithCapacity(store, csp.DefaultCapacity)
}

// NewWithCapacity creates a database with a custom queue capacity for
// the change bus and derived pipeline queues
func NewWithCapacity(store storage.Store, capacity int) *Database {
	source := csp.NewQueue[*event.Event](capacity)
	return &Database{
		store:          store,
		sourceOfChange: source,
		caster:         csp.NewBroadcast(source, capacity),
		capacity:       capacity,
	}
}

// AddEvent persists the event and publishes it on the change bus.
// Adding an event that is already stored is a silent no-op: nothing is
// written and nothing is published.
func (d *Database) AddEvent(ctx context.Context, evt *event.Event) error {
	_, err := d.store.Get(ctx, event.ByID(evt.ID))
	if err == nil {
		return nil // already known
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to look up event %s: %w", evt.ID, err)
	}

	log.Printf("database: adding event %s", evt.ID)
	if err := d.store.Put(ctx, evt); err != nil {
		return fmt.Errorf("failed to store event %s: %w", evt.ID, err)
	}
	return d.sourceOfChange.Put(evt)
}

// Subscribe returns an independent stream of all newly added events.
// Closing the returned queue detaches the subscriber; closing the
// database closes every subscriber stream.
func (d *Database) Subscribe() *csp.Queue[*event.Event] {
	return d.caster.Subscribe()
}

// OnChange returns an independent stream of newly added events matching
// the filter. The filter runs in the subscriber's own delivery task, so
// a slow filter never delays other subscribers.
func (d *Database) OnChange(filter func(*event.Event) bool) *csp.Queue[*event.Event] {
	sub := d.caster.Subscribe()
	out := csp.NewQueue[*event.Event](d.capacity)

	go func() {
		for {
			evt, ok := sub.Pop()
			if !ok {
				out.Close()
				return
			}
			if !filter(evt) {
				continue
			}
			if err := out.Put(evt); err != nil {
				// listener hung up, release our bus copy
				sub.Close()
				return
			}
		}
	}()

	return out
}

// GetEvent retrieves a single stored event matching the indices
func (d *Database) GetEvent(ctx context.Context, indices event.Indices) (*event.Event, error) {
	return d.store.Get(ctx, indices)
}

// FilterEvents returns all stored events satisfying the predicate
func (d *Database) FilterEvents(ctx context.Context, predicate func(*event.Event) bool) ([]*event.Event, error) {
	return d.store.Filter(ctx, predicate)
}

// AllEvents returns every stored event
func (d *Database) AllEvents(ctx context.Context) ([]*event.Event, error) {
	return d.store.Filter(ctx, func(*event.Event) bool { return true })
}

// Close shuts down the change bus, closing all subscriber streams
func (d *Database) Close() {
	d.sourceOfChange.Close()
}
