package llm

import (
	"context"
	"fmt"

	"meal-board/internal/config"
	"meal-board/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewTextGenerator builds the generator selected by LLM_PROVIDER. It returns
// nil when no provider is configured.
func NewTextGenerator(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	if !cfg.LLMEnabled() {
		return nil, nil
	}
	switch cfg.LLMProvider {
	case config.LLMProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case config.LLMProviderGroq:
		return NewGroqClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
