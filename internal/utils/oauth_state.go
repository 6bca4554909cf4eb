package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// State rejection reasons
const (
	StateReasonInvalid = "invalid"
	StateReasonExpired = "expired"
)

const stateSecretInfo = "reply-assistant/oauth-state"

type statePayload struct {
	Nonce      string `json:"nonce"`
	OperatorID string `json:"operatorId"`
	ExpiresAt  int64  `json:"expiresAt"` // unix milliseconds
}

// StateResult is the outcome of parsing an OAuth state token
type StateResult struct {
	Valid      bool
	Reason     string
	OperatorID string
	Nonce      string
	ExpiresAt  time.Time
}

// OAuthStateCodec builds and verifies signed OAuth state tokens.
// A token is base64url(payload) "." base64url(hmac-sha256(payload)).
type OAuthStateCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewOAuthStateCodec creates a codec. Tokens expire ttl after Build.
func NewOAuthStateCodec(secret []byte, ttl time.Duration) *OAuthStateCodec {
	return &OAuthStateCodec{secret: secret, ttl: ttl}
}

// DeriveStateSecret returns the configured secret, or an HKDF-SHA256 key
// derived from the token encryption key when none is configured.
func DeriveStateSecret(configured, encryptionKey string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}

	keyBytes, err := ParseEncryptionKey(encryptionKey)
	if err != nil {
		return nil, err
	}

	secret := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, keyBytes, nil, []byte(stateSecretInfo)), secret); err != nil {
		return nil, fmt.Errorf("failed to derive state secret: %w", err)
	}
	return secret, nil
}

// TTL returns how long a built token stays valid
func (c *OAuthStateCodec) TTL() time.Duration {
	return c.ttl
}

// Build issues a state token bound to operatorID and returns it with its nonce
func (c *OAuthStateCodec) Build(operatorID string, now time.Time) (string, string, error) {
	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	body, err := json.Marshal(statePayload{
		Nonce:      nonce,
		OperatorID: operatorID,
		ExpiresAt:  now.Add(c.ttl).UnixMilli(),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to encode state: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + c.sign(encoded), nonce, nil
}

// Parse verifies the signature and expiry of a state token
func (c *OAuthStateCodec) Parse(token string, now time.Time) StateResult {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return StateResult{Reason: StateReasonInvalid}
	}

	if !hmac.Equal([]byte(signature), []byte(c.sign(encoded))) {
		return StateResult{Reason: StateReasonInvalid}
	}

	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return StateResult{Reason: StateReasonInvalid}
	}

	var payload statePayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.OperatorID == "" || payload.Nonce == "" {
		return StateResult{Reason: StateReasonInvalid}
	}

	expiresAt := time.UnixMilli(payload.ExpiresAt)
	if !now.Before(expiresAt) {
		return StateResult{
			Reason:     StateReasonExpired,
			OperatorID: payload.OperatorID,
			ExpiresAt:  expiresAt,
		}
	}

	return StateResult{
		Valid:      true,
		OperatorID: payload.OperatorID,
		Nonce:      payload.Nonce,
		ExpiresAt:  expiresAt,
	}
}

func (c *OAuthStateCodec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
