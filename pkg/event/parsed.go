package event

import "github.com/paul/wannsee/pkg/content"

// Parsed pairs an event with its derived views: the decoded tag record
// and, for plaintext message kinds, the content span annotations.
// Derivation is pure; a Parsed event is never persisted independently
// of the underlying Event.
type Parsed struct {
	*Event
	Tags         Tags
	ContentItems []content.Item
}

// Parse derives the parsed form of an event
func Parse(e *Event) *Parsed {
	p := &Parsed{Event: e, Tags: ParseTags(e)}
	if isPlaintextKind(e.Kind) {
		for item := range content.Parse(e.Content) {
			p.ContentItems = append(p.ContentItems, item)
		}
	}
	return p
}

// ParseAll derives the parsed form of a batch of events
func ParseAll(events []*Event) []*Parsed {
	parsed := make([]*Parsed, len(events))
	for i, e := range events {
		parsed[i] = Parse(e)
	}
	return parsed
}

// isPlaintextKind reports whether the event content is expected to be
// readable text. Direct messages qualify because the store holds them
// decrypted.
func isPlaintextKind(kind int) bool {
	return kind == KindTextNote || kind == KindDirectMessage
}
