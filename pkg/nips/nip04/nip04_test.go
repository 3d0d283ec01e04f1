package nip04

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	gonostrnip04 "github.com/nbd-wtf/go-nostr/nip04"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContent(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectError bool
		expectedCT  string
		expectedIV  string
	}{
		{
			name:        "valid content",
			content:     "ciphertext?iv=initialization_vector",
			expectError: false,
			expectedCT:  "ciphertext",
			expectedIV:  "initialization_vector",
		},
		{
			name:        "missing iv separator",
			content:     "ciphertextiv",
			expectError: true,
		},
		{
			name:        "empty iv",
			content:     "ciphertext?iv=",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, iv, err := ParseContent(tt.content)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedCT, ct)
				assert.Equal(t, tt.expectedIV, iv)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := "Hello, NIP-04 encryption!"

	encrypted, err := Encrypt(plaintext, key)
	assert.NoError(t, err)
	assert.NotEmpty(t, encrypted)

	decrypted, err := Decrypt(encrypted, key)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptWithInvalidKey(t *testing.T) {
	key := make([]byte, 16) // Wrong key size
	plaintext := "test"

	_, err := Encrypt(plaintext, key)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "key must be 32 bytes")
}

func TestDecryptWithInvalidKey(t *testing.T) {
	key := make([]byte, 16) // Wrong key size
	content := "ciphertext?iv=dGVzdA=="

	_, err := Decrypt(content, key)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "key must be 32 bytes")
}

func TestComputeSharedSecretMatchesNostrLibrary(t *testing.T) {
	senderPrivKey := nostr.GeneratePrivateKey()
	senderPubKey, err := nostr.GetPublicKey(senderPrivKey)
	require.NoError(t, err)

	receiverPrivKey := nostr.GeneratePrivateKey()
	receiverPubKey, err := nostr.GetPublicKey(receiverPrivKey)
	require.NoError(t, err)

	ours, err := ComputeSharedSecret(receiverPubKey, senderPrivKey)
	require.NoError(t, err)
	assert.Len(t, ours, 32)

	theirs, err := gonostrnip04.ComputeSharedSecret(receiverPubKey, senderPrivKey)
	require.NoError(t, err)
	assert.Equal(t, theirs, ours)

	// Both sides must derive the same secret
	receiverSide, err := ComputeSharedSecret(senderPubKey, receiverPrivKey)
	require.NoError(t, err)
	assert.Equal(t, ours, receiverSide)
}

func TestEncryptDecryptAcrossKeyPairs(t *testing.T) {
	senderPrivKey := nostr.GeneratePrivateKey()
	senderPubKey, err := nostr.GetPublicKey(senderPrivKey)
	require.NoError(t, err)

	receiverPrivKey := nostr.GeneratePrivateKey()
	receiverPubKey, err := nostr.GetPublicKey(receiverPrivKey)
	require.NoError(t, err)

	plaintext := "Test message from sender to receiver"

	senderKey, err := ComputeSharedSecret(receiverPubKey, senderPrivKey)
	require.NoError(t, err)

	encrypted, err := Encrypt(plaintext, senderKey)
	require.NoError(t, err)

	receiverKey, err := ComputeSharedSecret(senderPubKey, receiverPrivKey)
	require.NoError(t, err)

	decrypted, err := Decrypt(encrypted, receiverKey)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}
