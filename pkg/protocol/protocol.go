// Package protocol encodes and decodes the JSON array frames exchanged
// with relays (NIP-01), seen from the client side.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/paul/wannsee/pkg/event"
)

// MessageType represents the type of Nostr protocol message
type MessageType string

const (
	MessageTypeEvent  MessageType = "EVENT"
	MessageTypeReq    MessageType = "REQ"
	MessageTypeClose  MessageType = "CLOSE"
	MessageTypeEOSE   MessageType = "EOSE"   // End of stored events
	MessageTypeOK     MessageType = "OK"     // Command result
	MessageTypeNotice MessageType = "NOTICE" // Human-readable message
	MessageTypeAuth   MessageType = "AUTH"   // NIP-42 authentication
	MessageTypeClosed MessageType = "CLOSED" // Subscription terminated by relay
)

// RelayMessage is a decoded relay-to-client frame
type RelayMessage struct {
	Type           MessageType
	SubscriptionID string       // EVENT, EOSE, CLOSED
	Event          *event.Event // EVENT
	EventID        string       // OK
	Accepted       bool         // OK
	Reason         string       // OK, NOTICE, CLOSED
}

// ParseRelayMessage decodes a raw frame received from a relay
func ParseRelayMessage(data []byte) (*RelayMessage, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("empty frame")
	}

	var msgType MessageType
	if err := json.Unmarshal(frame[0], &msgType); err != nil {
		return nil, fmt.Errorf("invalid frame type: %w", err)
	}

	msg := &RelayMessage{Type: msgType}

	switch msgType {
	case MessageTypeEvent:
		if len(frame) < 3 {
			return nil, fmt.Errorf("EVENT frame needs a subscription id and an event")
		}
		if err := json.Unmarshal(frame[1], &msg.SubscriptionID); err != nil {
			return nil, fmt.Errorf("invalid subscription id: %w", err)
		}
		msg.Event = &event.Event{}
		if err := json.Unmarshal(frame[2], msg.Event); err != nil {
			return nil, fmt.Errorf("invalid event payload: %w", err)
		}

	case MessageTypeEOSE, MessageTypeClosed:
		if len(frame) < 2 {
			return nil, fmt.Errorf("%s frame needs a subscription id", msgType)
		}
		if err := json.Unmarshal(frame[1], &msg.SubscriptionID); err != nil {
			return nil, fmt.Errorf("invalid subscription id: %w", err)
		}
		if msgType == MessageTypeClosed && len(frame) >= 3 {
			json.Unmarshal(frame[2], &msg.Reason)
		}

	case MessageTypeOK:
		if len(frame) < 3 {
			return nil, fmt.Errorf("OK frame needs an event id and a status")
		}
		if err := json.Unmarshal(frame[1], &msg.EventID); err != nil {
			return nil, fmt.Errorf("invalid event id: %w", err)
		}
		if err := json.Unmarshal(frame[2], &msg.Accepted); err != nil {
			return nil, fmt.Errorf("invalid status: %w", err)
		}
		if len(frame) >= 4 {
			json.Unmarshal(frame[3], &msg.Reason)
		}

	case MessageTypeNotice:
		if len(frame) >= 2 {
			json.Unmarshal(frame[1], &msg.Reason)
		}
	}

	return msg, nil
}

// EventMessage encodes a client EVENT frame
func EventMessage(evt *event.Event) ([]byte, error) {
	return json.Marshal([]interface{}{MessageTypeEvent, evt})
}

// ReqMessage encodes a client REQ frame opening a subscription
func ReqMessage(subID string, filters ...*event.Filter) ([]byte, error) {
	frame := []interface{}{MessageTypeReq, subID}
	for _, f := range filters {
		frame = append(frame, f)
	}
	return json.Marshal(frame)
}

// CloseMessage encodes a client CLOSE frame terminating a subscription
func CloseMessage(subID string) ([]byte, error) {
	return json.Marshal([]interface{}{MessageTypeClose, subID})
}
