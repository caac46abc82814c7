package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dont-get-fat/internal/config"
)

// NewFromConfig builds the TextGenerator selected by LLM_PROVIDER. Missing credentials
// do not fail here: the returned generator reports ErrNotConfigured on every call so
// that only the generation path is affected.
func NewFromConfig(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	var gen TextGenerator
	switch strings.ToLower(cfg.LLMProvider) {
	case "", "openai":
		gen = NewOpenAIClient(cfg)
	case "groq":
		gen = NewGroqClient(cfg)
	case "gemini":
		client, err := NewGeminiClient(ctx, cfg)
		if errors.Is(err, ErrNotConfigured) {
			gen = Unconfigured{Reason: "GEMINI_API_KEY is not set"}
			break
		}
		if err != nil {
			return nil, err
		}
		gen = client
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if cfg.LLMCachePath != "" {
		cached, err := NewCachedTextGenerator(gen, cfg.LLMCachePath)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return gen, nil
}

// Unconfigured is a TextGenerator for a provider without credentials.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) GenerateContent(context.Context, Prompt) (ContentResponse, error) {
	return ContentResponse{}, fmt.Errorf("%w: %s", ErrNotConfigured, u.Reason)
}
