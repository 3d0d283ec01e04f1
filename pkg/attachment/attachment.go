// Package attachment transports binary payloads as groups of small
// encrypted events. The payload is base64-encoded, sliced into fixed
// chunks and shipped as independent signed events; only the image tag's
// index field defines a chunk's position.
package attachment

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/paul/wannsee/pkg/account"
	"github.com/paul/wannsee/pkg/event"
)

// ChunkSize is the number of base64 characters per chunk event
const ChunkSize = 32 * 1024

// PrepareImageEvents encodes the blob as base64, splits it into chunks
// and produces one signed, encrypted event per chunk, all sharing a
// fresh random group-lead id. Any caller-supplied extra tags are
// appended to every chunk event. If a single chunk fails to encrypt the
// whole operation fails.
// Returns the ordered chunk events and the group-lead id.
func PrepareImageEvents(sender account.Context, receiverPubKeyHex string, blob []byte, kind int, extraTags ...[]string) ([]*event.Event, string, error) {
	encoded := base64.StdEncoding.EncodeToString(blob)

	chunkCount := (len(encoded) + ChunkSize - 1) / ChunkSize

	groupLeadID, err := newGroupLeadID()
	if err != nil {
		return nil, "", err
	}

	events := make([]*event.Event, 0, chunkCount)
	for i := 0; i < chunkCount; i++ {
		end := (i + 1) * ChunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		chunk := encoded[i*ChunkSize : end]

		encrypted, err := sender.Encrypt(receiverPubKeyHex, chunk)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encrypt chunk %d: %w", i, err)
		}

		tags := [][]string{
			event.PubKeyTag(receiverPubKeyHex),
			event.ImageTag(groupLeadID, chunkCount, i),
		}
		tags = append(tags, extraTags...)

		evt := &event.Event{
			CreatedAt: time.Now().Unix(),
			Kind:      kind,
			Tags:      tags,
			Content:   encrypted,
		}
		if err := sender.SignEvent(evt); err != nil {
			return nil, "", fmt.Errorf("failed to sign chunk %d: %w", i, err)
		}
		events = append(events, evt)
	}

	return events, groupLeadID, nil
}

// ReassembleBase64Image rebuilds the original base64 text from a
// complete set of already-decrypted chunk events, in any order.
// Duplicate indices overwrite; a missing chunk fails with the required
// and missing counts. The caller decodes the base64 back to binary.
func ReassembleBase64Image(events []*event.Event) (string, error) {
	if len(events) == 0 {
		return "", nil
	}

	first := events[0]
	firstTag := event.ParseTags(first).Image
	if firstTag == nil {
		return "", fmt.Errorf("event %s is not an image chunk", first.ID)
	}

	chunks := make([]string, firstTag.TotalChunks)
	filled := make([]bool, firstTag.TotalChunks)

	for _, evt := range events {
		tag := event.ParseTags(evt).Image
		if tag == nil {
			return "", fmt.Errorf("event %s is not an image chunk", evt.ID)
		}
		if tag.ChunkIndex < 0 || tag.ChunkIndex >= len(chunks) {
			return "", fmt.Errorf("event %s has chunk index %d outside [0, %d)", evt.ID, tag.ChunkIndex, len(chunks))
		}
		chunks[tag.ChunkIndex] = evt.Content
		filled[tag.ChunkIndex] = true
	}

	missing := 0
	for _, ok := range filled {
		if !ok {
			missing++
		}
	}
	if missing > 0 {
		return "", fmt.Errorf("not enough chunks for image event %s: need %d, missing %d", first.ID, len(chunks), missing)
	}

	var out strings.Builder
	for _, chunk := range chunks {
		out.WriteString(chunk)
	}
	return out.String(), nil
}

// GroupImageEvents partitions events by the group-lead id in their
// image tag. Events without an image tag are excluded.
func GroupImageEvents(events []*event.Parsed) map[string][]*event.Parsed {
	groups := make(map[string][]*event.Parsed)
	for _, e := range events {
		if e.Tags.Image == nil {
			continue
		}
		id := e.Tags.Image.GroupLeadID
		groups[id] = append(groups[id], e)
	}
	return groups
}

// newGroupLeadID draws a fresh 32-byte identifier from the same key
// space event ids live in
func newGroupLeadID() (string, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate group id: %w", err)
	}
	return hex.EncodeToString(key.Serialize()), nil
}
