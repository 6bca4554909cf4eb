package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) *OAuthStateCodec {
	t.Helper()
	secret, err := DeriveStateSecret("", hexKey)
	require.NoError(t, err)
	return NewOAuthStateCodec(secret, 10*time.Minute)
}

func TestOAuthState_BuildParse(t *testing.T) {
	codec := newCodec(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	token, nonce, err := codec.Build("operator-1", now)
	require.NoError(t, err)
	assert.NotEmpty(t, nonce)

	result := codec.Parse(token, now.Add(5*time.Minute))
	assert.True(t, result.Valid)
	assert.Equal(t, "operator-1", result.OperatorID)
	assert.Equal(t, nonce, result.Nonce)
	assert.Equal(t, now.Add(10*time.Minute).UnixMilli(), result.ExpiresAt.UnixMilli())
}

func TestOAuthState_Expired(t *testing.T) {
	codec := newCodec(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	token, _, err := codec.Build("operator-1", now)
	require.NoError(t, err)

	result := codec.Parse(token, now.Add(30*time.Minute))
	assert.False(t, result.Valid)
	assert.Equal(t, StateReasonExpired, result.Reason)

	result = codec.Parse(token, now.Add(10*time.Minute))
	assert.False(t, result.Valid)
	assert.Equal(t, StateReasonExpired, result.Reason)
}

func TestOAuthState_SubSecondExpiry(t *testing.T) {
	codec := newCodec(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 900*int(time.Millisecond), time.UTC)

	token, _, err := codec.Build("operator-1", now)
	require.NoError(t, err)

	result := codec.Parse(token, now.Add(10*time.Minute-500*time.Millisecond))
	assert.True(t, result.Valid)
	assert.Equal(t, now.Add(10*time.Minute), result.ExpiresAt.UTC())

	result = codec.Parse(token, now.Add(10*time.Minute))
	assert.Equal(t, StateReasonExpired, result.Reason)
}

func TestOAuthState_Invalid(t *testing.T) {
	codec := newCodec(t)
	now := time.Now()

	token, _, err := codec.Build("operator-1", now)
	require.NoError(t, err)

	payload, signature, _ := strings.Cut(token, ".")
	tampered := payload[:len(payload)-2] + "xx." + signature

	otherSecret, err := DeriveStateSecret("another-secret", "")
	require.NoError(t, err)
	otherToken, _, err := NewOAuthStateCodec(otherSecret, time.Minute).Build("operator-1", now)
	require.NoError(t, err)

	for _, bad := range []string{"", "garbage", "a.b", ".sig", tampered, otherToken} {
		result := codec.Parse(bad, now)
		assert.False(t, result.Valid, bad)
		assert.Equal(t, StateReasonInvalid, result.Reason, bad)
	}
}

func TestDeriveStateSecret(t *testing.T) {
	configured, err := DeriveStateSecret("configured", hexKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("configured"), configured)

	a, err := DeriveStateSecret("", hexKey)
	require.NoError(t, err)
	b, err := DeriveStateSecret("", hexKey)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	c, err := DeriveStateSecret("", textKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = DeriveStateSecret("", "bad")
	assert.Error(t, err)
}
