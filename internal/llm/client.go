// Package llm holds the text-generation clients used for prompt-based reply
// drafts and operational prompt generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned when the selected provider has no API key
var ErrNotConfigured = errors.New("llm provider is not configured")

// ErrEmptyResponse is returned when the provider answered without text
var ErrEmptyResponse = errors.New("llm response contained no text")

// Generator produces text from a system instruction and a user message
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// APIError is a non-2xx answer from the provider
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether a later attempt may succeed
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// backoff waits 2^(attempt-1) * base, or until ctx is done
func backoff(ctx context.Context, attempt int, base time.Duration) error {
	if attempt <= 0 || base <= 0 {
		return nil
	}

	timer := time.NewTimer(base * time.Duration(1<<uint(attempt-1)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
