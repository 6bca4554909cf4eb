package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	cipherIVLength  = 16
	cipherTagLength = 16
)

var hexKeyRegex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// TokenCipher encrypts Instagram access tokens with AES-256-GCM.
// Payload layout is base64(iv || tag || ciphertext) with a 16-byte iv.
type TokenCipher struct {
	aead cipher.AEAD
}

// ParseEncryptionKey accepts 64 hex characters or exactly 32 bytes of text
func ParseEncryptionKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if hexKeyRegex.MatchString(key) {
		return hex.DecodeString(key)
	}

	raw := []byte(key)
	if len(raw) != 32 {
		return nil, fmt.Errorf("encryption key must be exactly 32 bytes (or 64 hex chars), got %d bytes", len(raw))
	}
	return raw, nil
}

// NewTokenCipher creates a cipher from a configured key
func NewTokenCipher(key string) (*TokenCipher, error) {
	keyBytes, err := ParseEncryptionKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, cipherIVLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}

	return &TokenCipher{aead: aead}, nil
}

// Encrypt seals plain under a fresh random iv
func (c *TokenCipher) Encrypt(plain string) (string, error) {
	iv := make([]byte, cipherIVLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	// Seal returns ciphertext || tag
	sealed := c.aead.Seal(nil, iv, []byte(plain), nil)
	ciphertext := sealed[:len(sealed)-cipherTagLength]
	tag := sealed[len(sealed)-cipherTagLength:]

	payload := make([]byte, 0, cipherIVLength+cipherTagLength+len(ciphertext))
	payload = append(payload, iv...)
	payload = append(payload, tag...)
	payload = append(payload, ciphertext...)

	return base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt opens a payload produced by Encrypt
func (c *TokenCipher) Decrypt(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode token payload: %w", err)
	}

	if len(raw) < cipherIVLength+cipherTagLength {
		return "", fmt.Errorf("token payload too short")
	}

	iv := raw[:cipherIVLength]
	tag := raw[cipherIVLength : cipherIVLength+cipherTagLength]
	ciphertext := raw[cipherIVLength+cipherTagLength:]

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plain, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}

	return string(plain), nil
}
