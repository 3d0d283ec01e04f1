package content

import (
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(text string) []Item {
	var items []Item
	for item := range Parse(text) {
		items = append(items, item)
	}
	return items
}

func TestParseURL(t *testing.T) {
	text := "check out https://example.com/page and http://other.example"
	items := collect(text)

	require.Len(t, items, 2)
	assert.Equal(t, ItemURL, items[0].Type)
	assert.Equal(t, "https://example.com/page", text[items[0].Start:items[0].End+1])
	assert.Equal(t, ItemURL, items[1].Type)
	assert.Equal(t, "http://other.example", text[items[1].Start:items[1].End+1])
}

func TestParseNpub(t *testing.T) {
	pubkey := strings.Repeat("ab", 32)
	npub, err := nip19.EncodePublicKey(pubkey)
	require.NoError(t, err)

	text := "hello " + npub + " world"
	items := collect(text)

	require.Len(t, items, 1)
	assert.Equal(t, ItemPubKey, items[0].Type)
	assert.Equal(t, npub, text[items[0].Start:items[0].End+1])
	assert.Equal(t, pubkey, items[0].PubKey)
}

func TestParseNote(t *testing.T) {
	noteID := strings.Repeat("cd", 32)
	note, err := nip19.EncodeNote(noteID)
	require.NoError(t, err)

	text := "see " + note
	items := collect(text)

	require.Len(t, items, 1)
	assert.Equal(t, ItemNote, items[0].Type)
	assert.Equal(t, noteID, items[0].NoteID)
}

func TestParseTagRef(t *testing.T) {
	text := "replying to #[0] and #[12]"
	items := collect(text)

	require.Len(t, items, 2)
	assert.Equal(t, ItemTagRef, items[0].Type)
	assert.Equal(t, "#[0]", text[items[0].Start:items[0].End+1])
	assert.Equal(t, "#[12]", text[items[1].Start:items[1].End+1])
}

func TestParseInvalidNpubSkipped(t *testing.T) {
	// Right shape, bad checksum: the span is dropped entirely
	text := "npub1" + strings.Repeat("q", 58)
	items := collect(text)

	assert.Empty(t, items)
}

func TestParsePlainText(t *testing.T) {
	assert.Empty(t, collect("just a plain message with no references"))
	assert.Empty(t, collect(""))
}

func TestParseMixedContent(t *testing.T) {
	pubkey := strings.Repeat("12", 32)
	npub, err := nip19.EncodePublicKey(pubkey)
	require.NoError(t, err)

	text := "hi " + npub + " look at https://example.com #[3]"
	items := collect(text)

	require.Len(t, items, 3)
	// One full scan per kind: URLs first, then npubs, then tag refs
	assert.Equal(t, ItemURL, items[0].Type)
	assert.Equal(t, ItemPubKey, items[1].Type)
	assert.Equal(t, ItemTagRef, items[2].Type)
}

func TestParseRestartable(t *testing.T) {
	seq := Parse("https://a.example and https://b.example")

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}

	assert.Equal(t, 2, first)
	assert.Equal(t, second, first)
}

func TestParseEarlyStop(t *testing.T) {
	seq := Parse("https://a.example https://b.example https://c.example")

	var got []Item
	for item := range seq {
		got = append(got, item)
		if len(got) == 1 {
			break
		}
	}
	require.Len(t, got, 1)
}
