package account

import (
	"fmt"

	"github.com/paul/wannsee/pkg/event"
)

// DecryptionFailure pairs a still-encrypted event with the reason it
// could not be decrypted. It travels down the sync pipeline alongside
// successful events and is never persisted.
type DecryptionFailure struct {
	Event  *event.Event
	Reason error
}

func (f *DecryptionFailure) String() string {
	return fmt.Sprintf("failed to decrypt event %s: %v", f.Event.ID, f.Reason)
}

// DecryptEvent returns a copy of the event with its content replaced by
// the plaintext, decrypted against the peer's key. The original event
// is left untouched so the failure path can still carry it.
func DecryptEvent(ctx Context, evt *event.Event, peerPubKeyHex string) (*event.Event, *DecryptionFailure) {
	plaintext, err := ctx.Decrypt(peerPubKeyHex, evt.Content)
	if err != nil {
		return nil, &DecryptionFailure{Event: evt, Reason: err}
	}

	decrypted := *evt
	decrypted.Content = plaintext
	return &decrypted, nil
}
