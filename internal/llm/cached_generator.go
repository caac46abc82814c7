package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// CachedTextGenerator wraps a TextGenerator and replays earlier responses to identical
// prompts from a JSON file. It keeps local development from spending tokens.
type CachedTextGenerator struct {
	realGen       TextGenerator
	cache         map[string]ContentResponse
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedTextGenerator creates a CachedTextGenerator, loading the cache file if present.
func NewCachedTextGenerator(realGen TextGenerator, cacheFilePath string) (*CachedTextGenerator, error) {
	c := &CachedTextGenerator{
		realGen:       realGen,
		cache:         make(map[string]ContentResponse),
		cacheFilePath: cacheFilePath,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("LLM cache file not found, starting with empty cache: %s", cacheFilePath)
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	log.Printf("Loaded %d LLM responses from cache: %s", len(c.cache), cacheFilePath)
	return c, nil
}

// GenerateContent answers from the cache when possible. Cache hits report no token usage.
func (c *CachedTextGenerator) GenerateContent(ctx context.Context, prompt Prompt) (ContentResponse, error) {
	key := cacheKey(prompt)

	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return ContentResponse{Content: cached.Content}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, err
	}

	c.mu.Lock()
	c.cache[key] = resp
	c.mu.Unlock()

	if err := c.SaveCache(); err != nil {
		log.Printf("Warning: failed to persist LLM cache: %v", err)
	}
	return resp, nil
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedTextGenerator) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}
	return nil
}

// Close closes the wrapped generator when it holds resources.
func (c *CachedTextGenerator) Close() error {
	if closer, ok := c.realGen.(Closer); ok {
		return closer.Close()
	}
	return nil
}

func cacheKey(p Prompt) string {
	data, _ := json.Marshal(p)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
