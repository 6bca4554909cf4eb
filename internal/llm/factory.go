package llm

import (
	"context"
	"fmt"

	"github.com/prperemyshlev/reply-assistant/internal/config"
)

// Purpose selects the model and output budget for a generator
type Purpose int

const (
	PurposeDraft Purpose = iota
	PurposeOperationalPrompt
)

const (
	draftMaxOutputTokens       = 400
	operationalMaxOutputTokens = 1200
)

// NewGenerator builds the configured provider's client for purpose.
// It returns ErrNotConfigured when the provider has no API key.
func NewGenerator(ctx context.Context, cfg config.LLMConfig, purpose Purpose) (Generator, error) {
	maxTokens := draftMaxOutputTokens
	if purpose == PurposeOperationalPrompt {
		maxTokens = operationalMaxOutputTokens
	}

	switch cfg.Provider {
	case providerOpenAI, "":
		model := cfg.DraftModel
		if purpose == PurposeOperationalPrompt {
			model = cfg.OperationalModel
		}
		client, err := NewOpenAIClient(OpenAIConfig{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			Model:           model,
			Timeout:         cfg.Timeout.Duration,
			MaxRetries:      cfg.MaxRetries,
			MaxOutputTokens: maxTokens,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case providerGemini:
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			MaxRetries:      cfg.MaxRetries,
			MaxOutputTokens: maxTokens,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
