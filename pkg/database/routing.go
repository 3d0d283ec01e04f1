package database

import (
	"fmt"

	"github.com/paul/wannsee/pkg/account"
	"github.com/paul/wannsee/pkg/event"
)

// WhoIAmTalkingTo resolves the counterpart of a direct message event.
// For an event we authored, the single "p" tag names the counterpart;
// for an event someone else authored, the single "p" tag must name us
// and the counterpart is the author. myPublicKey may be hex or npub.
func WhoIAmTalkingTo(evt *event.Event, myPublicKey string) (string, error) {
	if evt.Kind != event.KindDirectMessage {
		return "", fmt.Errorf("event %s is not a direct message (kind %d)", evt.ID, evt.Kind)
	}

	myKey, err := account.NormalizePublicKey(myPublicKey)
	if err != nil {
		return "", err
	}

	p := event.ParseTags(evt).P

	if evt.PubKey == myKey {
		// I am the sender; the p tag names the receiver
		switch len(p) {
		case 1:
			return p[0], nil
		case 0:
			return "", fmt.Errorf("event %s has no p tag, not a valid direct message", evt.ID)
		default:
			return "", fmt.Errorf("event %s has multiple p tags, counterpart is ambiguous", evt.ID)
		}
	}

	// Someone else is the sender; the p tag must name me
	switch len(p) {
	case 1:
		if p[0] != myKey {
			return "", fmt.Errorf("event %s is not addressed to me: receiver is %s, sender is %s", evt.ID, p[0], evt.PubKey)
		}
	case 0:
		return "", fmt.Errorf("event %s has no p tag, not a valid direct message", evt.ID)
	default:
		return "", fmt.Errorf("event %s has multiple p tags, counterpart is ambiguous", evt.ID)
	}

	return evt.PubKey, nil
}
