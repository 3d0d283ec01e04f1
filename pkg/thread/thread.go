// Package thread reconstructs conversation threads from a flat event
// collection, using reference tags and logical clocks.
package thread

import (
	"cmp"
	"slices"

	"github.com/paul/wannsee/pkg/event"
)

// Thread is an ordered group of events sharing one resolved root
// identifier. RootID is either the id of a known root event or an
// external id the collection never delivered.
type Thread struct {
	RootID string
	Events []*event.Parsed
}

// Root returns the thread's earliest event in canonical order
func (t *Thread) Root() *event.Parsed {
	return t.Events[0]
}

// Compare orders two events by logical clock when both carry one,
// falling back to creation time otherwise
func Compare(a, b *event.Parsed) int {
	if a.Tags.Lamport != nil && b.Tags.Lamport != nil {
		return cmp.Compare(*a.Tags.Lamport, *b.Tags.Lamport)
	}
	return cmp.Compare(a.CreatedAt, b.CreatedAt)
}

// referenceTarget computes the single id an event hangs off: the root
// tag if present, else the reply tag, else the first generic e tag,
// else the attachment group lead, else the event itself (a root).
func referenceTarget(e *event.Parsed) string {
	switch {
	case e.Tags.Root != nil:
		return e.Tags.Root.ID
	case e.Tags.Reply != nil:
		return e.Tags.Reply.ID
	case len(e.Tags.E) > 0:
		return e.Tags.E[0]
	case e.Tags.Image != nil:
		return e.Tags.Image.GroupLeadID
	}
	return e.ID
}

// resolved is what an event's reference settles to after one hop:
// a known event or a dangling external id
type resolved struct {
	evt      *event.Parsed
	external string
}

func (r resolved) key() string {
	if r.evt != nil {
		return r.evt.ID
	}
	return r.external
}

// ComputeThreads groups the events into threads. Reference resolution
// is deliberately shallow: each event's target is looked up once in the
// id index, and the target's own (already memoized) resolution is
// reused when available. Deeper reply chains collapse only as far as
// canonical processing order makes them; that behavior is kept as-is.
// Every input event lands in exactly one thread.
func ComputeThreads(events []*event.Parsed) []Thread {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, Compare)

	// id index; the first chunk of an attachment group also stands in
	// for the whole group under the group-lead id, which shares the
	// event-id namespace on purpose
	ids := make(map[string]*event.Parsed)
	for _, e := range sorted {
		if _, ok := ids[e.ID]; !ok {
			ids[e.ID] = e
		}
		if img := e.Tags.Image; img != nil && img.ChunkIndex == 0 {
			if _, ok := ids[img.GroupLeadID]; !ok {
				ids[img.GroupLeadID] = e
			}
		}
	}

	relations := make(map[*event.Parsed]resolved)
	for _, e := range sorted {
		target := referenceTarget(e)
		known, ok := ids[target]
		if !ok {
			relations[e] = resolved{external: target}
			continue
		}
		if rel, ok := relations[known]; ok {
			// the referenced event already settled on a root, adopt it
			relations[e] = rel
		} else {
			relations[e] = resolved{evt: known}
		}
	}

	// bucket by final group key, preserving iteration order
	index := make(map[string]int)
	var threads []Thread
	for _, e := range sorted {
		key := relations[e].key()
		i, ok := index[key]
		if !ok {
			i = len(threads)
			index[key] = i
			threads = append(threads, Thread{RootID: key})
		}
		threads[i].Events = append(threads[i].Events, e)
	}

	return threads
}

// SortThreads orders threads newest-first: by the roots' logical clocks
// when both carry one and they differ, otherwise by the roots' creation
// times
func SortThreads(threads []Thread) {
	slices.SortStableFunc(threads, func(a, b Thread) int {
		ra, rb := a.Root(), b.Root()
		if ra.Tags.Lamport != nil && rb.Tags.Lamport != nil && *ra.Tags.Lamport != *rb.Tags.Lamport {
			return cmp.Compare(*rb.Tags.Lamport, *ra.Tags.Lamport)
		}
		return cmp.Compare(rb.CreatedAt, ra.CreatedAt)
	})
}
