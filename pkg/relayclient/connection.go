// Package relayclient maintains websocket connections to relays and
// turns their frames into a stream of messages the sync pipelines
// consume. Relays are untrusted: inbound events are checked against
// the filters of the subscription they claim to answer, and everything
// else (signatures, routing) is validated downstream.
package relayclient

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/juju/ratelimit"
	"github.com/paul/wannsee/pkg/csp"
	"github.com/paul/wannsee/pkg/event"
	"github.com/paul/wannsee/pkg/protocol"
)

// Message pairs a parsed relay frame with the URL of the relay that
// sent it
type Message struct {
	Message  *protocol.RelayMessage
	RelayURL string
}

// Options tunes a connection
type Options struct {
	// QueueCapacity is the inbound message queue size
	QueueCapacity int

	// IngestRate caps inbound events per second; zero disables
	// throttling
	IngestRate float64
}

// DefaultOptions returns the default connection tuning
func DefaultOptions() *Options {
	return &Options{
		QueueCapacity: csp.DefaultCapacity,
		IngestRate:    0,
	}
}

// Connection is a single relay connection with a standing read task
type Connection struct {
	url     string
	conn    *websocket.Conn
	out     *csp.Queue[Message]
	limiter *ratelimit.Bucket

	writeMu   sync.Mutex
	closeOnce sync.Once

	filterMu sync.Mutex
	filters  map[string][]*event.Filter
}

// Dial connects to a relay and starts reading frames into the
// connection's message queue
func Dial(ctx context.Context, url string, opts *Options) (*Connection, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &Connection{
		url:     url,
		conn:    conn,
		out:     csp.NewQueue[Message](opts.QueueCapacity),
		filters: make(map[string][]*event.Filter),
	}
	if opts.IngestRate > 0 {
		c.limiter = ratelimit.NewBucketWithRate(opts.IngestRate, int64(opts.IngestRate)+1)
	}

	go c.readPump()
	return c, nil
}

// URL returns the relay URL this connection was dialed with
func (c *Connection) URL() string {
	return c.url
}

// Messages returns the inbound message queue. The queue closes when the
// connection drops; closing the queue closes the connection.
func (c *Connection) Messages() *csp.Queue[Message] {
	return c.out
}

func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("relayclient: read error from %s: %v", c.url, err)
			}
			return
		}

		msg, err := protocol.ParseRelayMessage(data)
		if err != nil {
			log.Printf("relayclient: dropping malformed frame from %s: %v", c.url, err)
			continue
		}

		if msg.Type == protocol.MessageTypeEvent {
			if !c.accepts(msg) {
				log.Printf("relayclient: dropping event %s from %s: outside subscription %q", msg.Event.ID, c.url, msg.SubscriptionID)
				continue
			}
			if c.limiter != nil {
				c.limiter.Wait(1)
			}
		}

		if err := c.out.Put(Message{Message: msg, RelayURL: c.url}); err != nil {
			// consumer hung up
			return
		}
	}
}

// accepts reports whether an inbound event answers a subscription this
// connection actually opened, with at least one of its filters matching
func (c *Connection) accepts(msg *protocol.RelayMessage) bool {
	c.filterMu.Lock()
	filters := c.filters[msg.SubscriptionID]
	c.filterMu.Unlock()

	for _, f := range filters {
		if msg.Event.Matches(f) {
			return true
		}
	}
	return false
}

// Subscribe opens a subscription for the given filters. Events arriving
// on the subscription that match none of the filters are dropped.
func (c *Connection) Subscribe(subID string, filters ...*event.Filter) error {
	c.filterMu.Lock()
	c.filters[subID] = filters
	c.filterMu.Unlock()

	frame, err := protocol.ReqMessage(subID, filters...)
	if err != nil {
		return err
	}
	return c.write(frame)
}

// Unsubscribe terminates a subscription
func (c *Connection) Unsubscribe(subID string) error {
	c.filterMu.Lock()
	delete(c.filters, subID)
	c.filterMu.Unlock()

	frame, err := protocol.CloseMessage(subID)
	if err != nil {
		return err
	}
	return c.write(frame)
}

// Publish sends an event to the relay
func (c *Connection) Publish(evt *event.Event) error {
	frame, err := protocol.EventMessage(evt)
	if err != nil {
		return err
	}
	return c.write(frame)
}

func (c *Connection) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close tears the connection down and closes its message queue
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
		c.out.Close()
	})
}
