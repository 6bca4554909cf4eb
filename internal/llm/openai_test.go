package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, url, model string) *OpenAIClient {
	t.Helper()
	c, err := NewOpenAIClient(OpenAIConfig{
		APIKey:       "sk-test",
		BaseURL:      url,
		Model:        model,
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestOpenAIClient_Generate(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(`{"output_text":"  generated  "}`))
	}))
	defer srv.Close()

	text, err := newTestOpenAI(t, srv.URL, "gpt-5.2").Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "generated", text)

	assert.Equal(t, "gpt-5.2", captured["model"])
	assert.Equal(t, map[string]any{"effort": "medium"}, captured["reasoning"])
	assert.NotContains(t, captured, "temperature")
	assert.EqualValues(t, 1200, captured["max_output_tokens"])

	input := captured["input"].([]any)
	require.Len(t, input, 2)
	system := input[0].(map[string]any)
	assert.Equal(t, "system", system["role"])
	content := system["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "input_text", content["type"])
	assert.Equal(t, "sys", content["text"])
}

func TestOpenAIClient_TemperatureForOlderModels(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		_, _ = w.Write([]byte(`{"output":[{"content":[{"text":"a"},{"text":"b"}]}]}`))
	}))
	defer srv.Close()

	text, err := newTestOpenAI(t, srv.URL, "gpt-4o-mini").Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "a\nb", text)
	assert.Equal(t, 0.4, captured["temperature"])
	assert.NotContains(t, captured, "reasoning")
}

func TestOpenAIClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"output_text":"ok"}`))
	}))
	defer srv.Close()

	text, err := newTestOpenAI(t, srv.URL, "gpt-5.2").Generate(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.EqualValues(t, 3, calls.Load())
}

func TestOpenAIClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestOpenAI(t, srv.URL, "gpt-5.2").Generate(context.Background(), "s", "u")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestOpenAIClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := newTestOpenAI(t, srv.URL, "gpt-5.2").Generate(context.Background(), "s", "u")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad key")
	assert.EqualValues(t, 1, calls.Load())
}

func TestOpenAIClient_EmptyAndMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[]}`))
	}))
	defer srv.Close()

	_, err := newTestOpenAI(t, srv.URL, "gpt-5.2").Generate(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = ExtractResponseText([]byte("not json"))
	assert.Error(t, err)
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestIsGPT5OrHigher(t *testing.T) {
	assert.True(t, IsGPT5OrHigher("gpt-5.2"))
	assert.True(t, IsGPT5OrHigher("GPT-6"))
	assert.True(t, IsGPT5OrHigher("gpt-10-mini"))
	assert.False(t, IsGPT5OrHigher("gpt-4o-mini"))
	assert.False(t, IsGPT5OrHigher("o3"))
}
