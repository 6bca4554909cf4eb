package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const providerOpenAI = "openai"

var gptMajorRegex = regexp.MustCompile(`(?i)^gpt-(\d+)`)

// OpenAIConfig configures an OpenAI Responses API client
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxRetries      int
	MaxOutputTokens int
	RetryBackoff    time.Duration
}

// OpenAIClient calls the OpenAI Responses API
type OpenAIClient struct {
	apiKey          string
	baseURL         string
	model           string
	maxRetries      int
	maxOutputTokens int
	retryBackoff    time.Duration
	httpClient      *http.Client
}

var _ Generator = (*OpenAIClient)(nil)

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 1200
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}

	return &OpenAIClient{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		model:           cfg.Model,
		maxRetries:      cfg.MaxRetries,
		maxOutputTokens: cfg.MaxOutputTokens,
		retryBackoff:    cfg.RetryBackoff,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.model
}

type inputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type reasoningOptions struct {
	Effort string `json:"effort"`
}

type responsesRequest struct {
	Model           string            `json:"model"`
	Reasoning       *reasoningOptions `json:"reasoning,omitempty"`
	Temperature     *float64          `json:"temperature,omitempty"`
	Input           []inputMessage    `json:"input"`
	MaxOutputTokens int               `json:"max_output_tokens"`
}

type responsesPayload struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// IsGPT5OrHigher reports whether model names a gpt-5+ reasoning model
func IsGPT5OrHigher(model string) bool {
	m := gptMajorRegex.FindStringSubmatch(model)
	if m == nil {
		return false
	}
	major, err := strconv.Atoi(m[1])
	return err == nil && major >= 5
}

func (c *OpenAIClient) buildRequest(systemPrompt, userPrompt string) responsesRequest {
	req := responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: []inputContent{{Type: "input_text", Text: systemPrompt}}},
			{Role: "user", Content: []inputContent{{Type: "input_text", Text: userPrompt}}},
		},
		MaxOutputTokens: c.maxOutputTokens,
	}

	if IsGPT5OrHigher(c.model) {
		req.Reasoning = &reasoningOptions{Effort: "medium"}
	} else {
		temperature := 0.4
		req.Temperature = &temperature
	}

	return req
}

// ExtractResponseText prefers output_text and falls back to the joined output parts
func ExtractResponseText(body []byte) (string, error) {
	var payload responsesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if text := strings.TrimSpace(payload.OutputText); text != "" {
		return text, nil
	}

	var parts []string
	for _, item := range payload.Output {
		for _, content := range item.Content {
			parts = append(parts, content.Text)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Generate sends one Responses API request, retrying 429, 5xx and network failures
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	jsonData, err := json.Marshal(c.buildRequest(systemPrompt, userPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := backoff(ctx, attempt, c.retryBackoff); err != nil {
			return "", err
		}

		body, err := c.do(ctx, jsonData)
		if err == nil {
			return ExtractResponseText(body)
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return "", err
		}
		if ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *OpenAIClient) do(ctx context.Context, jsonData []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Provider: providerOpenAI, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
