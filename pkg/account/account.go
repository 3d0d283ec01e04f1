// Package account holds the signing and encryption context a client
// acts under: a secp256k1 keypair with BIP-340 schnorr signing and
// NIP-04 payload encryption.
package account

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/paul/wannsee/pkg/event"
	"github.com/paul/wannsee/pkg/nips/nip04"
)

// Context is the account collaborator the sync pipeline and the
// payload codec call through. Implementations hold key material; the
// rest of the system never sees a private key.
type Context interface {
	// PublicKey returns the account's x-only pubkey, hex-encoded
	PublicKey() string

	// Encrypt encrypts plaintext for the peer
	Encrypt(peerPubKeyHex, plaintext string) (string, error)

	// Decrypt decrypts ciphertext produced by or for the peer
	Decrypt(peerPubKeyHex, ciphertext string) (string, error)

	// SignEvent fills in PubKey, ID and Sig on the event
	SignEvent(evt *event.Event) error
}

// KeyPair is an in-memory Context backed by a raw private key
type KeyPair struct {
	privKey *btcec.PrivateKey
	privHex string
	pubHex  string
}

var _ Context = (*KeyPair)(nil)

// Generate creates a fresh keypair
func Generate() (*KeyPair, error) {
	privKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return fromPrivateKey(privKey), nil
}

// FromPrivateKeyHex restores a keypair from a hex-encoded private key
func FromPrivateKeyHex(privateKeyHex string) (*KeyPair, error) {
	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes")
	}
	privKey, _ := btcec.PrivKeyFromBytes(raw)
	return fromPrivateKey(privKey), nil
}

func fromPrivateKey(privKey *btcec.PrivateKey) *KeyPair {
	return &KeyPair{
		privKey: privKey,
		privHex: hex.EncodeToString(privKey.Serialize()),
		pubHex:  hex.EncodeToString(schnorr.SerializePubKey(privKey.PubKey())),
	}
}

// PublicKey returns the x-only pubkey in hex
func (kp *KeyPair) PublicKey() string {
	return kp.pubHex
}

// Encrypt encrypts plaintext for the peer using NIP-04
func (kp *KeyPair) Encrypt(peerPubKeyHex, plaintext string) (string, error) {
	shared, err := nip04.ComputeSharedSecret(peerPubKeyHex, kp.privHex)
	if err != nil {
		return "", err
	}
	return nip04.Encrypt(plaintext, shared)
}

// Decrypt decrypts NIP-04 ciphertext exchanged with the peer
func (kp *KeyPair) Decrypt(peerPubKeyHex, ciphertext string) (string, error) {
	shared, err := nip04.ComputeSharedSecret(peerPubKeyHex, kp.privHex)
	if err != nil {
		return "", err
	}
	return nip04.Decrypt(ciphertext, shared)
}

// SignEvent sets the event's pubkey, computes its content-hash id and
// signs it with BIP-340 schnorr
func (kp *KeyPair) SignEvent(evt *event.Event) error {
	evt.PubKey = kp.pubHex

	id, err := evt.ComputeID()
	if err != nil {
		return err
	}
	evt.ID = id

	idBytes, err := hex.DecodeString(id)
	if err != nil {
		return err
	}

	sig, err := schnorr.Sign(kp.privKey, idBytes)
	if err != nil {
		return fmt.Errorf("failed to sign event: %w", err)
	}

	evt.Sig = hex.EncodeToString(sig.Serialize())
	return nil
}

// NormalizePublicKey accepts a pubkey as hex or bech32 npub and
// returns the hex form
func NormalizePublicKey(key string) (string, error) {
	if !strings.HasPrefix(key, "npub") {
		return key, nil
	}
	_, value, err := nip19.Decode(key)
	if err != nil {
		return "", fmt.Errorf("invalid npub: %w", err)
	}
	pubkey, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("invalid npub payload")
	}
	return pubkey, nil
}
