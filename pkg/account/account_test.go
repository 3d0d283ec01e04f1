package account

import (
	"testing"

	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/paul/wannsee/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	assert.Len(t, kp.PublicKey(), 64)

	other, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, kp.PublicKey(), other.PublicKey())
}

func TestFromPrivateKeyHex(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	restored, err := FromPrivateKeyHex(kp.privHex)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), restored.PublicKey())

	_, err = FromPrivateKeyHex("not hex")
	assert.Error(t, err)

	_, err = FromPrivateKeyHex("abcd") // too short
	assert.Error(t, err)
}

func TestSignEvent(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	evt := &event.Event{
		CreatedAt: 1234567890,
		Kind:      event.KindTextNote,
		Content:   "signed note",
	}
	require.NoError(t, kp.SignEvent(evt))

	assert.Equal(t, kp.PublicKey(), evt.PubKey)
	assert.Len(t, evt.ID, 64)
	assert.Len(t, evt.Sig, 128)
	assert.NoError(t, evt.Validate())
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	alice, err := Generate()
	require.NoError(t, err)
	bob, err := Generate()
	require.NoError(t, err)

	ciphertext, err := alice.Encrypt(bob.PublicKey(), "between us")
	require.NoError(t, err)
	assert.NotEqual(t, "between us", ciphertext)

	// Bob decrypts against Alice's key
	plaintext, err := bob.Decrypt(alice.PublicKey(), ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "between us", plaintext)

	// Alice can decrypt her own outgoing message too
	plaintext, err = alice.Decrypt(bob.PublicKey(), ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "between us", plaintext)
}

func TestDecryptGarbageFails(t *testing.T) {
	alice, err := Generate()
	require.NoError(t, err)
	bob, err := Generate()
	require.NoError(t, err)

	_, err = bob.Decrypt(alice.PublicKey(), "not a ciphertext")
	assert.Error(t, err)
}

func TestDecryptEvent(t *testing.T) {
	alice, err := Generate()
	require.NoError(t, err)
	bob, err := Generate()
	require.NoError(t, err)

	dm, err := NewDirectMessageEvent(alice, bob.PublicKey(), "secret")
	require.NoError(t, err)

	decrypted, failure := DecryptEvent(bob, dm, alice.PublicKey())
	require.Nil(t, failure)
	assert.Equal(t, "secret", decrypted.Content)
	// The original stays encrypted
	assert.NotEqual(t, "secret", dm.Content)
	assert.Equal(t, dm.ID, decrypted.ID)
}

func TestDecryptEventFailure(t *testing.T) {
	alice, err := Generate()
	require.NoError(t, err)
	bob, err := Generate()
	require.NoError(t, err)
	eve, err := Generate()
	require.NoError(t, err)

	dm, err := NewDirectMessageEvent(alice, bob.PublicKey(), "secret")
	require.NoError(t, err)

	// Eve holds the wrong key
	decrypted, failure := DecryptEvent(eve, dm, alice.PublicKey())
	assert.Nil(t, decrypted)
	require.NotNil(t, failure)
	assert.Equal(t, dm.ID, failure.Event.ID)
	assert.Contains(t, failure.String(), dm.ID)
}

func TestNormalizePublicKey(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	// hex passes through unchanged
	got, err := NormalizePublicKey(kp.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), got)

	// npub decodes to hex
	npub, err := nip19.EncodePublicKey(kp.PublicKey())
	require.NoError(t, err)
	got, err = NormalizePublicKey(npub)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), got)

	_, err = NormalizePublicKey("npub1garbage")
	assert.Error(t, err)
}
