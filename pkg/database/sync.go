package database

import (
	"context"
	"log"

	"github.com/paul/wannsee/pkg/account"
	"github.com/paul/wannsee/pkg/csp"
	"github.com/paul/wannsee/pkg/event"
	"github.com/paul/wannsee/pkg/protocol"
)

// IncomingEvent pairs an event with the URL of the relay that
// delivered it
type IncomingEvent struct {
	Event    *event.Event
	RelayURL string
}

// RelayResponse pairs a parsed relay frame with its source URL
type RelayResponse struct {
	Message  *protocol.RelayMessage
	RelayURL string
}

// SyncResult is one output of the direct-message sync: either a
// decrypted event or a decryption failure, never both
type SyncResult struct {
	Event   *event.Event
	Failure *account.DecryptionFailure
}

// SyncEvents consumes incoming relay events, adding those that satisfy
// the filter to the store and discarding the rest. The returned queue
// produces nothing; it exists as the downstream lifecycle handle:
// closing it cancels consumption of the incoming queue, and exhaustion
// of the incoming queue closes it.
func (d *Database) SyncEvents(ctx context.Context, filter func(*event.Event) bool, incoming *csp.Queue[IncomingEvent]) *csp.Queue[*event.Event] {
	res := csp.NewQueue[*event.Event](d.capacity)

	go func() {
		for {
			in, ok := incoming.Pop()
			if !ok {
				res.Close()
				return
			}
			if res.Closed() {
				incoming.Close()
				return
			}
			if !filter(in.Event) {
				log.Printf("database: event %s from %s does not satisfy the sync filter", in.Event.ID, in.RelayURL)
				continue
			}
			if err := d.AddEvent(ctx, in.Event); err != nil {
				log.Printf("database: failed to sync event %s: %v", in.Event.ID, err)
			}
		}
	}()

	return res
}

// SyncNewDirectMessageEvents consumes relay responses, decrypting the
// direct messages addressed to or sent by the account and persisting
// the ones not seen before. Decryption failures are emitted downstream
// without being persisted; persistence failures are logged and the
// decrypted event is still delivered. Shutdown is symmetric: a closed
// downstream closes the upstream and vice versa.
func (d *Database) SyncNewDirectMessageEvents(ctx context.Context, acct account.Context, msgs *csp.Queue[RelayResponse]) *csp.Queue[SyncResult] {
	res := csp.NewQueue[SyncResult](d.capacity)
	myPublicKey := acct.PublicKey()

	go func() {
		for {
			in, ok := msgs.Pop()
			if !ok {
				res.Close()
				return
			}
			if in.Message == nil || in.Message.Type != protocol.MessageTypeEvent {
				continue
			}

			encrypted := in.Message.Event
			theirPubKey, err := WhoIAmTalkingTo(encrypted, myPublicKey)
			if err != nil {
				// The subscription covers everything the account
				// publishes, so events without a usable p tag
				// routinely land here.
				log.Printf("database: dm sync: %v", err)
				continue
			}

			decrypted, failure := account.DecryptEvent(acct, encrypted, theirPubKey)
			if failure != nil {
				if err := res.Put(SyncResult{Failure: failure}); err != nil {
					msgs.Close()
					return
				}
				continue
			}

			if _, err := d.store.Get(ctx, event.ByID(encrypted.ID)); err == nil {
				continue // already processed
			}

			if err := d.AddEvent(ctx, decrypted); err != nil {
				// delivery downstream still proceeds
				log.Printf("database: dm sync failed to store event %s: %v", decrypted.ID, err)
			}
			if err := res.Put(SyncResult{Event: decrypted}); err != nil {
				msgs.Close()
				return
			}
		}
	}()

	return res
}
