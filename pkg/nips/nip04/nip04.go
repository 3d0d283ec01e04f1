package nip04

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

var (
	ErrInvalidContentFormat = errors.New("invalid content format, expected '?iv=' separator")
	ErrInvalidIVLength      = errors.New("invalid IV length")
	ErrDecryptionFailed     = errors.New("decryption failed")
)

// ComputeSharedSecret derives the ECDH shared secret between our
// private key and a peer's x-only public key, both hex-encoded.
// The returned 32 bytes are the AES-256 key for Encrypt/Decrypt.
func ComputeSharedSecret(peerPubKeyHex, privateKeyHex string) ([]byte, error) {
	privKeyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	privKey, _ := btcec.PrivKeyFromBytes(privKeyBytes)

	// Nostr pubkeys are x-only; assume the even-y point per BIP-340
	pubKeyBytes, err := hex.DecodeString("02" + peerPubKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid peer pubkey hex: %w", err)
	}
	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid peer pubkey: %w", err)
	}

	return btcec.GenerateSharedSecret(privKey, pubKey), nil
}

// ParseContent parses NIP-04 content format "ciphertext?iv=iv"
func ParseContent(content string) (ciphertext, iv string, err error) {
	parts := strings.SplitN(content, "?iv=", 2)
	if len(parts) != 2 {
		return "", "", ErrInvalidContentFormat
	}

	ciphertext = parts[0]
	iv = parts[1]

	if len(iv) == 0 {
		return "", "", ErrInvalidIVLength
	}

	return ciphertext, iv, nil
}

// Encrypt encrypts plaintext using AES-256-CBC with the provided key
func Encrypt(plaintext string, key []byte) (string, error) {
	if len(key) != 32 {
		return "", fmt.Errorf("key must be 32 bytes for AES-256")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create ciphertext with padding
	plaintextBytes := []byte(plaintext)
	padding := aes.BlockSize - len(plaintextBytes)%aes.BlockSize
	ciphertext := make([]byte, len(plaintextBytes)+padding)
	copy(ciphertext, plaintextBytes)
	for i := len(plaintextBytes); i < len(ciphertext); i++ {
		ciphertext[i] = byte(padding)
	}

	// Generate random IV
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	// Encrypt
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, ciphertext)

	// Return in NIP-04 format: base64(ciphertext)?iv=base64(iv)
	return base64.StdEncoding.EncodeToString(ciphertext) + "?iv=" + base64.StdEncoding.EncodeToString(iv), nil
}

// Decrypt decrypts NIP-04 content using the provided key
func Decrypt(content string, key []byte) (string, error) {
	if len(key) != 32 {
		return "", fmt.Errorf("key must be 32 bytes for AES-256")
	}

	// Parse content
	ciphertextB64, ivB64, err := ParseContent(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse content: %w", err)
	}

	// Decode base64
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode IV: %w", err)
	}

	if len(iv) != aes.BlockSize {
		return "", ErrInvalidIVLength
	}

	if len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("ciphertext is not a multiple of block size")
	}

	// Decrypt
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	mode := cipher.NewCBCDecrypter(block, iv)
	plaintext := make([]byte, len(ciphertext))
	mode.CryptBlocks(plaintext, ciphertext)

	// Remove padding
	if len(plaintext) == 0 {
		return "", ErrDecryptionFailed
	}

	padding := int(plaintext[len(plaintext)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(plaintext) {
		return "", ErrDecryptionFailed
	}

	// Verify padding
	for i := len(plaintext) - padding; i < len(plaintext); i++ {
		if plaintext[i] != byte(padding) {
			return "", ErrDecryptionFailed
		}
	}

	return string(plaintext[:len(plaintext)-padding]), nil
}
