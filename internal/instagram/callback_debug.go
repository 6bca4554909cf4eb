package instagram

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"
)

// Fingerprint returns the first 16 hex chars of the SHA-256 of value
func Fingerprint(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])[:16]
}

// CallbackDebugMeta describes an OAuth callback request without exposing code or state
type CallbackDebugMeta struct {
	RequestID        string  `json:"request_id"`
	At               string  `json:"at"`
	Path             string  `json:"path"`
	CodeLength       int     `json:"code_length"`
	CodeFingerprint  *string `json:"code_fingerprint"`
	StateLength      int     `json:"state_length"`
	StateFingerprint *string `json:"state_fingerprint"`
	UserAgent        string  `json:"user_agent"`
	ForwardedFor     string  `json:"forwarded_for"`
	Referer          string  `json:"referer"`
}

// BuildCallbackDebugMeta summarizes a callback request for logging
func BuildCallbackDebugMeta(requestID string, r *http.Request, code, state string, now time.Time) CallbackDebugMeta {
	meta := CallbackDebugMeta{
		RequestID:    requestID,
		At:           now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Path:         r.URL.Path,
		CodeLength:   len(code),
		StateLength:  len(state),
		UserAgent:    r.Header.Get("User-Agent"),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		Referer:      r.Header.Get("Referer"),
	}
	if code != "" {
		fp := Fingerprint(code)
		meta.CodeFingerprint = &fp
	}
	if state != "" {
		fp := Fingerprint(state)
		meta.StateFingerprint = &fp
	}
	return meta
}

// CallbackPayload flattens query parameters: single values stay strings, repeated keys become lists
func CallbackPayload(query url.Values) map[string]any {
	payload := make(map[string]any, len(query))
	for key, values := range query {
		switch len(values) {
		case 0:
			payload[key] = ""
		case 1:
			payload[key] = values[0]
		default:
			payload[key] = values
		}
	}
	return payload
}
