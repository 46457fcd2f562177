// Package crypto encrypts account tokens at rest. The key is derived from a
// process-wide secret; a row encrypted under a different secret decrypts to
// the empty string rather than an error, so stale rows degrade to
// "no token" instead of breaking reads.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Box seals and opens short secrets with a key derived from one shared
// secret string.
type Box struct {
	key []byte
}

// NewBox derives the symmetric key as SHA-256 of the secret.
func NewBox(secret string) *Box {
	key := sha256.Sum256([]byte(secret))
	return &Box{key: key[:]}
}

// Encrypt seals plaintext and returns a base64 token. Empty plaintext
// round-trips to empty.
func (b *Box) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Any failure (bad base64,
// truncated payload, wrong key) returns "".
func (b *Box) Decrypt(token string) string {
	if token == "" {
		return ""
	}
	sealed, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return ""
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return ""
	}
	if len(sealed) < aead.NonceSize() {
		return ""
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return ""
	}
	return string(plaintext)
}
