// Package content scans message text for well-known span patterns:
// plain URLs, #[n] tag references, and bech32-encoded pubkey (npub) and
// note identifiers.
package content

import (
	"iter"
	"regexp"

	"github.com/nbd-wtf/go-nostr/nip19"
)

// ItemType discriminates the span variants yielded by Parse
type ItemType string

const (
	ItemURL    ItemType = "url"
	ItemTagRef ItemType = "tag"
	ItemPubKey ItemType = "npub"
	ItemNote   ItemType = "note"
)

// Item is an immutable span annotation over the scanned text.
// Start and End are byte offsets; End is inclusive.
type Item struct {
	Type  ItemType
	Start int
	End   int

	// PubKey holds the decoded hex pubkey for npub spans
	PubKey string
	// NoteID holds the decoded hex event id for note spans
	NoteID string
}

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
	npubPattern   = regexp.MustCompile(`npub[0-9a-z]{59}`)
	notePattern   = regexp.MustCompile(`note[0-9a-z]{59}`)
	tagRefPattern = regexp.MustCompile(`#\[[0-9]+\]`)
)

// Parse yields span annotations for the text, one full scan per pattern
// kind. Spans of different kinds are not merged or deduplicated against
// each other, so overlapping annotations across kinds are possible.
// The returned sequence is finite and restartable.
func Parse(text string) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
			if !yield(Item{Type: ItemURL, Start: loc[0], End: loc[1] - 1}) {
				return
			}
		}
		for _, loc := range npubPattern.FindAllStringIndex(text, -1) {
			_, value, err := nip19.Decode(text[loc[0]:loc[1]])
			if err != nil {
				continue // not a real npub, skip the span entirely
			}
			pubkey, ok := value.(string)
			if !ok {
				continue
			}
			if !yield(Item{Type: ItemPubKey, Start: loc[0], End: loc[1] - 1, PubKey: pubkey}) {
				return
			}
		}
		for _, loc := range notePattern.FindAllStringIndex(text, -1) {
			_, value, err := nip19.Decode(text[loc[0]:loc[1]])
			if err != nil {
				continue
			}
			noteID, ok := value.(string)
			if !ok {
				continue
			}
			if !yield(Item{Type: ItemNote, Start: loc[0], End: loc[1] - 1, NoteID: noteID}) {
				return
			}
		}
		for _, loc := range tagRefPattern.FindAllStringIndex(text, -1) {
			if !yield(Item{Type: ItemTagRef, Start: loc[0], End: loc[1] - 1}) {
				return
			}
		}
	}
}
