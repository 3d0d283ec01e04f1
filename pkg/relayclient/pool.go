package relayclient

import (
	"context"
	"log"
	"sync"

	"github.com/paul/wannsee/pkg/csp"
	"github.com/paul/wannsee/pkg/event"
)

// Pool merges the message streams of several relay connections into a
// single queue. Relative ordering across relays is whatever arrival
// order produces; per-relay ordering is preserved.
type Pool struct {
	opts   *Options
	merged *csp.Queue[Message]

	mu    sync.Mutex
	conns []*Connection
}

// NewPool creates an empty pool
func NewPool(opts *Options) *Pool {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Pool{
		opts:   opts,
		merged: csp.NewQueue[Message](opts.QueueCapacity),
	}
}

// Add dials a relay and forwards its messages into the merged queue
func (p *Pool) Add(ctx context.Context, url string) error {
	conn, err := Dial(ctx, url, p.opts)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.conns = append(p.conns, conn)
	p.mu.Unlock()

	go func() {
		for {
			msg, ok := conn.Messages().Pop()
			if !ok {
				return
			}
			if err := p.merged.Put(msg); err != nil {
				// merged queue closed, release the connection
				conn.Close()
				return
			}
		}
	}()

	return nil
}

// Messages returns the merged inbound queue
func (p *Pool) Messages() *csp.Queue[Message] {
	return p.merged
}

// Subscribe opens the same subscription on every connected relay
func (p *Pool) Subscribe(subID string, filters ...*event.Filter) {
	for _, conn := range p.connections() {
		if err := conn.Subscribe(subID, filters...); err != nil {
			log.Printf("relayclient: subscribe failed on %s: %v", conn.URL(), err)
		}
	}
}

// Publish sends an event to every connected relay
func (p *Pool) Publish(evt *event.Event) {
	for _, conn := range p.connections() {
		if err := conn.Publish(evt); err != nil {
			log.Printf("relayclient: publish failed on %s: %v", conn.URL(), err)
		}
	}
}

// Close drops every connection and closes the merged queue
func (p *Pool) Close() {
	for _, conn := range p.connections() {
		conn.Close()
	}
	p.merged.Close()
}

func (p *Pool) connections() []*Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns := make([]*Connection, len(p.conns))
	copy(conns, p.conns)
	return conns
}
