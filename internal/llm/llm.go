package llm

import (
	"context"

	"dont-get-fat/internal/shared"
)

// Prompt is a single chat request: a system instruction, the user message and sampling settings.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider to constrain the reply to a JSON object.
	JSON bool
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt Prompt) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
