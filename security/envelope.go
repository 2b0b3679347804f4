// Package security implements the at-rest encryption envelope for memory
// and message content. Content is sealed with AES-256-GCM and stored as
// base64(nonce‖ciphertext). Opening tolerates legacy plaintext: anything
// that is not a valid envelope is passed through unchanged so a failed
// decrypt can never break rendering.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/hatira-labs/hatira/errors"
)

// Box seals and opens content envelopes with a fixed symmetric key.
type Box struct {
	aead cipher.AEAD
}

// NewBox derives a 256-bit key from the configured secret and returns a Box.
// The secret may be any non-empty string; it is hashed to key size.
func NewBox(secret string) (*Box, error) {
	if secret == "" {
		return nil, errors.InvalidInput("encryption secret must not be empty")
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeEncryptFailed, "creating cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeEncryptFailed, "creating gcm")
	}
	return &Box{aead: aead}, nil
}

// Seal encrypts plaintext and returns the base64 envelope.
func (b *Box) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCodeEncryptFailed, "generating nonce")
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts an envelope produced by Seal. If the value is not a valid
// envelope (not base64, too short, or authentication fails) the original
// value is returned unchanged together with a DECRYPT_FAILED error; callers
// that only render content can ignore the error.
func (b *Box) Open(value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return value, errors.WrapWithCode(err, errors.ErrCodeDecryptFailed, "not a base64 envelope")
	}
	if len(raw) < b.aead.NonceSize()+b.aead.Overhead() {
		return value, errors.FromCode(errors.ErrCodeDecryptFailed)
	}

	nonce, ciphertext := raw[:b.aead.NonceSize()], raw[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return value, errors.WrapWithCode(err, errors.ErrCodeDecryptFailed, "opening envelope")
	}
	return string(plaintext), nil
}

// OpenLenient is Open with the passthrough contract made explicit: it never
// fails, returning the raw value when the envelope cannot be opened.
func (b *Box) OpenLenient(value string) string {
	plaintext, _ := b.Open(value)
	return plaintext
}
