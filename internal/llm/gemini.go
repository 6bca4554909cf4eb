package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiConfig configures a Gemini client
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxRetries      int
	MaxOutputTokens int
	RetryBackoff    time.Duration
}

// GeminiClient generates text through the Gemini API
type GeminiClient struct {
	client          *genai.Client
	model           string
	maxRetries      int
	maxOutputTokens int32
	retryBackoff    time.Duration
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 1200
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:          client,
		model:           cfg.Model,
		maxRetries:      cfg.MaxRetries,
		maxOutputTokens: int32(cfg.MaxOutputTokens),
		retryBackoff:    cfg.RetryBackoff,
	}, nil
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate calls GenerateContent with the system prompt as system instruction
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   c.maxOutputTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := backoff(ctx, attempt, c.retryBackoff); err != nil {
			return "", err
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), config)
		if err != nil {
			var apiErr genai.APIError
			if errors.As(err, &apiErr) && apiErr.Code != 429 && apiErr.Code < 500 {
				return "", &APIError{Provider: providerGemini, StatusCode: apiErr.Code, Body: apiErr.Message}
			}
			if ctx.Err() != nil {
				return "", err
			}
			lastErr = fmt.Errorf("GenAI generate failed: %w", err)
			continue
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}
