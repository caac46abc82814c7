package llm

import (
	"context"
	"path/filepath"
	"testing"

	"dont-get-fat/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGenerator struct {
	calls int
}

func (g *countingGenerator) GenerateContent(_ context.Context, p Prompt) (ContentResponse, error) {
	g.calls++
	return ContentResponse{Content: "reply to " + p.User, Usage: shared.TokenUsage{PromptTokens: 3}}, nil
}

func TestCachedTextGenerator(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "llm.json")
	inner := &countingGenerator{}

	gen, err := NewCachedTextGenerator(inner, path)
	require.NoError(t, err)

	first, err := gen.GenerateContent(ctx, Prompt{User: "a"})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Usage.PromptTokens)

	second, err := gen.GenerateContent(ctx, Prompt{User: "a"})
	require.NoError(t, err)
	assert.Equal(t, "reply to a", second.Content)
	assert.Zero(t, second.Usage.PromptTokens, "cache hits cost nothing")
	assert.Equal(t, 1, inner.calls)

	_, err = gen.GenerateContent(ctx, Prompt{User: "a", Temperature: 0.8})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "different settings are a different prompt")

	reloaded, err := NewCachedTextGenerator(inner, path)
	require.NoError(t, err)
	_, err = reloaded.GenerateContent(ctx, Prompt{User: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
