package account

import (
	"time"

	"github.com/paul/wannsee/pkg/event"
)

// NewEvent builds and signs a plain event
func NewEvent(ctx Context, kind int, tags [][]string, content string) (*event.Event, error) {
	evt := &event.Event{
		CreatedAt: time.Now().Unix(),
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}
	if err := ctx.SignEvent(evt); err != nil {
		return nil, err
	}
	return evt, nil
}

// NewEncryptedEvent builds and signs an event whose content is
// encrypted for the receiver. Callers are responsible for including a
// "p" tag referencing the receiver.
func NewEncryptedEvent(ctx Context, receiverPubKeyHex string, kind int, tags [][]string, content string) (*event.Event, error) {
	encrypted, err := ctx.Encrypt(receiverPubKeyHex, content)
	if err != nil {
		return nil, err
	}
	return NewEvent(ctx, kind, tags, encrypted)
}

// NewDirectMessageEvent builds an encrypted direct message addressed to
// the receiver with the single "p" tag the DM contract requires
func NewDirectMessageEvent(ctx Context, receiverPubKeyHex, content string) (*event.Event, error) {
	tags := [][]string{event.PubKeyTag(receiverPubKeyHex)}
	return NewEncryptedEvent(ctx, receiverPubKeyHex, event.KindDirectMessage, tags, content)
}

// NewReplyEvent builds a reply to the target event, preserving the
// target's "p" references. Replies to direct messages are encrypted for
// the target's author.
func NewReplyEvent(ctx Context, target *event.Event, tags [][]string, content string) (*event.Event, error) {
	replyTags := [][]string{event.ReplyTag(target.ID)}
	for _, p := range event.ParseTags(target).P {
		replyTags = append(replyTags, event.PubKeyTag(p))
	}
	replyTags = append(replyTags, tags...)

	if target.Kind == event.KindDirectMessage {
		return NewEncryptedEvent(ctx, target.PubKey, target.Kind, replyTags, content)
	}
	return NewEvent(ctx, target.Kind, replyTags, content)
}
