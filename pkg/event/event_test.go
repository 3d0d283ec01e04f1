package event_test

import (
	"testing"

	"github.com/paul/wannsee/internal/testutil"
	"github.com/paul/wannsee/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestValidate(t *testing.T) {
	valid, _ := testutil.MustNewTestEvent(event.KindTextNote, "a valid note", nil)

	tampered := *valid
	tampered.Content = "tampered after signing"

	wrongID := *valid
	wrongID.ID = "0000000000000000000000000000000000000000000000000000000000000000"

	unsigned := *valid
	unsigned.Sig = ""

	anonymous := *valid
	anonymous.PubKey = ""

	tests := []struct {
		name    string
		evt     *event.Event
		wantErr bool
	}{
		{"signed event passes", valid, false},
		{"content changed after signing", &tampered, true},
		{"id does not match the content hash", &wrongID, true},
		{"missing signature", &unsigned, true},
		{"missing pubkey", &anonymous, true},
		{"negative kind", &event.Event{PubKey: valid.PubKey, Kind: -1, Sig: valid.Sig}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.evt.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComputeIDStableUnderNilTags(t *testing.T) {
	// nil and empty tag slices must hash identically, or an event built
	// with nil tags would never verify after a wire round trip
	withNil := &event.Event{PubKey: "abc", CreatedAt: 1700000000, Kind: 1, Content: "x", Tags: nil}
	withEmpty := &event.Event{PubKey: "abc", CreatedAt: 1700000000, Kind: 1, Content: "x", Tags: [][]string{}}

	idNil, err := withNil.ComputeID()
	require.NoError(t, err)
	idEmpty, err := withEmpty.ComputeID()
	require.NoError(t, err)

	assert.Equal(t, idEmpty, idNil)
}

func TestMatches(t *testing.T) {
	dm := &event.Event{
		ID:        "d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c0d1e2",
		PubKey:    "11aa22bb33cc44dd55ee66ff77aa88bb99cc00dd11ee22ff33aa44bb55cc66dd",
		CreatedAt: 1700000500,
		Kind:      event.KindDirectMessage,
		Tags:      [][]string{{"p", "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"}},
		Content:   "ciphertext?iv=aaaa",
	}

	tests := []struct {
		name   string
		filter *event.Filter
		want   bool
	}{
		{"empty filter matches everything", &event.Filter{}, true},
		{"exact id", &event.Filter{IDs: []string{dm.ID}}, true},
		{"id prefix", &event.Filter{IDs: []string{dm.ID[:12]}}, true},
		{"foreign id", &event.Filter{IDs: []string{"other"}}, false},
		{"any of several ids", &event.Filter{IDs: []string{"other", dm.ID}}, true},
		{"exact author", &event.Filter{Authors: []string{dm.PubKey}}, true},
		{"author prefix", &event.Filter{Authors: []string{dm.PubKey[:8]}}, true},
		{"foreign author", &event.Filter{Authors: []string{"deadbeef"}}, false},
		{"matching kind", &event.Filter{Kinds: []int{event.KindDirectMessage}}, true},
		{"any of several kinds", &event.Filter{Kinds: []int{event.KindTextNote, event.KindDirectMessage}}, true},
		{"wrong kind", &event.Filter{Kinds: []int{event.KindTextNote}}, false},
		{"p tag query", &event.Filter{Tags: map[string][]string{"p": {"fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"}}}, true},
		{"p tag prefix query", &event.Filter{Tags: map[string][]string{"p": {"fedcba98"}}}, true},
		{"absent p value", &event.Filter{Tags: map[string][]string{"p": {"nobody"}}}, false},
		{"absent tag name", &event.Filter{Tags: map[string][]string{"e": {dm.ID}}}, false},
		{"since before the event", &event.Filter{Since: int64Ptr(dm.CreatedAt - 1)}, true},
		{"since after the event", &event.Filter{Since: int64Ptr(dm.CreatedAt + 1)}, false},
		{"until after the event", &event.Filter{Until: int64Ptr(dm.CreatedAt + 1)}, true},
		{"until before the event", &event.Filter{Until: int64Ptr(dm.CreatedAt - 1)}, false},
		{"all constraints satisfied", &event.Filter{
			Kinds: []int{event.KindDirectMessage},
			Tags:  map[string][]string{"p": {"fedcba98"}},
			Since: int64Ptr(dm.CreatedAt),
		}, true},
		{"one failing constraint rejects", &event.Filter{
			Kinds: []int{event.KindDirectMessage},
			Tags:  map[string][]string{"p": {"nobody"}},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dm.Matches(tt.filter))
		})
	}
}

func TestMatchesSelectsFromCollection(t *testing.T) {
	me := testutil.MustGenerateKeyPair()
	them := testutil.MustGenerateKeyPair()

	inbound := testutil.MustNewTestEventWithKey(them, event.KindDirectMessage, "c1",
		[][]string{event.PubKeyTag(me.PublicKey())})
	outbound := testutil.MustNewTestEventWithKey(me, event.KindDirectMessage, "c2",
		[][]string{event.PubKeyTag(them.PublicKey())})
	note := testutil.MustNewTestEventWithKey(them, event.KindTextNote, "public", nil)

	all := []*event.Event{inbound, outbound, note}

	// The two filters the daemon subscribes with: DMs addressed to me,
	// and DMs I authored
	toMe := &event.Filter{
		Kinds: []int{event.KindDirectMessage},
		Tags:  map[string][]string{"p": {me.PublicKey()}},
	}
	fromMe := &event.Filter{
		Kinds:   []int{event.KindDirectMessage},
		Authors: []string{me.PublicKey()},
	}

	var kept []string
	for _, evt := range all {
		if evt.Matches(toMe) || evt.Matches(fromMe) {
			kept = append(kept, evt.ID)
		}
	}

	assert.Equal(t, []string{inbound.ID, outbound.ID}, kept)
}
