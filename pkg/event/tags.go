package event

import "strconv"

// Marker values used in the fourth position of "e" tags (NIP-10)
const (
	MarkerReply   = "reply"
	MarkerRoot    = "root"
	MarkerMention = "mention"
)

// EventRef is a decoded "e" tag carrying a reply or root marker
type EventRef struct {
	ID       string
	RelayURL string
}

// ImageRef is a decoded "image" tag: one chunk of a multi-event attachment.
// ChunkIndex is zero-based and always within [0, TotalChunks-1] for a
// well-formed attachment group.
type ImageRef struct {
	GroupLeadID string
	TotalChunks int
	ChunkIndex  int
}

// Tags is the decoded view of an event's positional tag arrays.
// Decoding never fails: malformed or absent tags simply leave the
// corresponding field unset.
type Tags struct {
	P       []string  // referenced pubkeys
	E       []string  // generic event references (including mentions)
	Reply   *EventRef // "e" tag with a reply marker
	Root    *EventRef // "e" tag with a root marker
	Image   *ImageRef // attachment chunk coordinates
	Client  string    // client name
	Lamport *int64    // logical clock, if the sender assigned one
}

// ParseTags decodes an event's tag arrays into a Tags record.
// Positional tuples are destructured exactly once here; everything
// downstream works with the named fields.
func ParseTags(e *Event) Tags {
	var tags Tags
	for _, tag := range e.Tags {
		if len(tag) == 0 {
			continue
		}
		switch tag[0] {
		case "p":
			if len(tag) >= 2 {
				tags.P = append(tags.P, tag[1])
			}
		case "e":
			if len(tag) >= 4 && tag[3] == MarkerReply {
				tags.Reply = &EventRef{ID: tag[1], RelayURL: tag[2]}
			} else if len(tag) >= 4 && tag[3] == MarkerRoot {
				tags.Root = &EventRef{ID: tag[1], RelayURL: tag[2]}
			} else if len(tag) >= 2 && tag[1] != "" {
				tags.E = append(tags.E, tag[1])
			}
		case "image":
			if len(tag) < 4 {
				continue
			}
			total, err := strconv.Atoi(tag[2])
			if err != nil {
				continue
			}
			index, err := strconv.Atoi(tag[3])
			if err != nil {
				continue
			}
			tags.Image = &ImageRef{GroupLeadID: tag[1], TotalChunks: total, ChunkIndex: index}
		case "client":
			if len(tag) >= 2 {
				tags.Client = tag[1]
			}
		case "lamport":
			if len(tag) >= 2 {
				if n, err := strconv.ParseInt(tag[1], 10, 64); err == nil {
					tags.Lamport = &n
				}
			}
		}
	}
	return tags
}

// PubKeyTag builds a "p" tag referencing a pubkey
func PubKeyTag(pubkey string) []string {
	return []string{"p", pubkey}
}

// ReplyTag builds an "e" tag with a reply marker
func ReplyTag(eventID string) []string {
	return []string{"e", eventID, "", MarkerReply}
}

// RootTag builds an "e" tag with a root marker
func RootTag(eventID string) []string {
	return []string{"e", eventID, "", MarkerRoot}
}

// ImageTag builds an "image" tag locating one chunk of an attachment group
func ImageTag(groupLeadID string, totalChunks, chunkIndex int) []string {
	return []string{"image", groupLeadID, strconv.Itoa(totalChunks), strconv.Itoa(chunkIndex)}
}

// LamportTag builds a "lamport" tag carrying a logical clock value
func LamportTag(timestamp int64) []string {
	return []string{"lamport", strconv.FormatInt(timestamp, 10)}
}

// ClientTag builds a "client" tag naming the publishing client
func ClientTag(name string) []string {
	return []string{"client", name}
}
