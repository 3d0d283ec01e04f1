package event

// Indices is a partial-field lookup shape for the backing store.
// Every field that is set must match; the id lookup is the primary path.
type Indices struct {
	ID        string
	CreatedAt *int64
	Kind      *int
	Tags      [][]string
	PubKey    string
}

// ByID builds the common id-only lookup
func ByID(id string) Indices {
	return Indices{ID: id}
}

// Match reports whether the event satisfies every field set on the indices
func (ix Indices) Match(e *Event) bool {
	if ix.ID != "" && e.ID != ix.ID {
		return false
	}
	if ix.CreatedAt != nil && e.CreatedAt != *ix.CreatedAt {
		return false
	}
	if ix.Kind != nil && e.Kind != *ix.Kind {
		return false
	}
	if ix.PubKey != "" && e.PubKey != ix.PubKey {
		return false
	}
	for _, want := range ix.Tags {
		if !hasExactTag(e, want) {
			return false
		}
	}
	return true
}

func hasExactTag(e *Event, want []string) bool {
	for _, tag := range e.Tags {
		if tagsEqual(tag, want) {
			return true
		}
	}
	return false
}

func tagsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
