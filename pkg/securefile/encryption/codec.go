// Package encryption provides the symmetric codec used for at-rest
// encryption of stored files.
//
// Payloads are sealed with AES-256-GCM. The key is process-wide
// configuration, supplied hex-encoded at construction and immutable
// thereafter. The random nonce is prepended to the ciphertext, so
// Decode(Encode(b)) == b for any payload while ciphertexts stay
// non-deterministic.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrDecryptFailed indicates the payload could not be authenticated and
// decrypted (corrupted bytes or a mismatched key). Corrupted plaintext is
// never returned silently.
var ErrDecryptFailed = errors.New("decryption failed")

// Codec encodes and decodes byte payloads with a fixed key.
type Codec struct {
	aead cipher.AEAD
}

// New creates a codec from a hex-encoded 32-byte key.
func New(hexKey string) (*Codec, error) {
	if hexKey == "" {
		return nil, errors.New("encryption key is required")
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex characters)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Codec{aead: aead}, nil
}

// Encode encrypts the payload, returning nonce-prefixed ciphertext.
func (c *Codec) Encode(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decode authenticates and decrypts a nonce-prefixed ciphertext.
func (c *Codec) Decode(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptFailed)
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return plaintext, nil
}
