package testutil

import (
	"github.com/paul/wannsee/pkg/account"
	"github.com/paul/wannsee/pkg/event"
)

// NewTestEvent creates a signed test event under a fresh keypair
func NewTestEvent(kind int, content string, tags [][]string) (*event.Event, *account.KeyPair, error) {
	kp, err := account.Generate()
	if err != nil {
		return nil, nil, err
	}

	evt, err := NewTestEventWithKey(kp, kind, content, tags)
	if err != nil {
		return nil, nil, err
	}
	return evt, kp, nil
}

// NewTestEventWithKey creates a signed test event with an existing keypair
func NewTestEventWithKey(kp *account.KeyPair, kind int, content string, tags [][]string) (*event.Event, error) {
	return NewTestEventAt(kp, kind, content, tags, 1234567890)
}

// NewTestEventAt creates a signed test event with an explicit timestamp
func NewTestEventAt(kp *account.KeyPair, kind int, content string, tags [][]string, createdAt int64) (*event.Event, error) {
	evt := &event.Event{
		Kind:      kind,
		Content:   content,
		Tags:      tags,
		CreatedAt: createdAt,
	}

	if err := kp.SignEvent(evt); err != nil {
		return nil, err
	}
	return evt, nil
}

// MustGenerateKeyPair generates a keypair or panics (for test convenience)
func MustGenerateKeyPair() *account.KeyPair {
	kp, err := account.Generate()
	if err != nil {
		panic(err)
	}
	return kp
}

// MustNewTestEvent creates a test event or panics (for test convenience)
func MustNewTestEvent(kind int, content string, tags [][]string) (*event.Event, *account.KeyPair) {
	evt, kp, err := NewTestEvent(kind, content, tags)
	if err != nil {
		panic(err)
	}
	return evt, kp
}

// MustNewTestEventWithKey creates a test event with an existing keypair or panics
func MustNewTestEventWithKey(kp *account.KeyPair, kind int, content string, tags [][]string) *event.Event {
	evt, err := NewTestEventWithKey(kp, kind, content, tags)
	if err != nil {
		panic(err)
	}
	return evt
}
