package memory

import (
	"context"
	"sync"

	"github.com/paul/wannsee/pkg/event"
	"github.com/paul/wannsee/pkg/storage"
)

// Store is an in-memory implementation of storage.Store. It backs the
// database tests and any setup where events do not need to outlive the
// process; durable deployments use the sqlite adapter.
type Store struct {
	mu     sync.RWMutex
	events map[string]*event.Event
	order  []string // insertion order, keeps Filter results stable
}

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		events: make(map[string]*event.Event),
	}
}

// Get retrieves a single event matching the indices
func (s *Store) Get(ctx context.Context, indices event.Indices) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Fast path: id lookups hit the map directly
	if indices.ID != "" {
		evt, exists := s.events[indices.ID]
		if !exists || !indices.Match(evt) {
			return nil, storage.ErrNotFound
		}
		return evt, nil
	}

	for _, id := range s.order {
		if evt, exists := s.events[id]; exists && indices.Match(evt) {
			return evt, nil
		}
	}
	return nil, storage.ErrNotFound
}

// Put stores an event in memory
func (s *Store) Put(ctx context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[evt.ID]; !exists {
		s.order = append(s.order, evt.ID)
	}
	s.events[evt.ID] = evt
	return nil
}

// Delete removes events matching the indices
func (s *Store) Delete(ctx context.Context, indices event.Indices) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.order[:0]
	for _, id := range s.order {
		evt := s.events[id]
		if indices.Match(evt) {
			delete(s.events, id)
			continue
		}
		remaining = append(remaining, id)
	}
	s.order = remaining
	return nil
}

// Filter returns all stored events satisfying the predicate, in
// insertion order
func (s *Store) Filter(ctx context.Context, predicate func(*event.Event) bool) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*event.Event
	for _, id := range s.order {
		if evt := s.events[id]; predicate(evt) {
			results = append(results, evt)
		}
	}
	return results, nil
}

// Close is a no-op for in-memory store
func (s *Store) Close() error {
	return nil
}

// Count returns the number of stored events (for testing)
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
