package storage

import (
	"context"
	"errors"

	"github.com/paul/wannsee/pkg/event"
)

var ErrNotFound = errors.New("event not found")

// Store is the persistence adapter behind the event database.
// Implementations can use any backend (sqlite, memory, etc.); the
// database layer treats Get/Put as sufficient for dedup and durability.
type Store interface {
	// Get retrieves a single event matching the indices.
	// Returns ErrNotFound when no stored event matches.
	Get(ctx context.Context, indices event.Indices) (*event.Event, error)

	// Put stores an event
	Put(ctx context.Context, evt *event.Event) error

	// Delete removes events matching the indices
	Delete(ctx context.Context, indices event.Indices) error

	// Filter returns all stored events satisfying the predicate.
	// It backs bulk reads such as thread reconstruction.
	Filter(ctx context.Context, predicate func(*event.Event) bool) ([]*event.Event, error)

	// Close closes the storage connection
	Close() error
}
