package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dont-get-fat/internal/config"
)

// ErrNotConfigured is returned by every call when no FAL key is set.
var ErrNotConfigured = errors.New("Image generation is not configured.")

const (
	mealModel    = "fal-ai/fast-sdxl"
	freeModel    = "fal-ai/hidream-i1-fast"
	maxParallel  = 4
	mealSuffix   = ", food photography, high detail, delicious looking"
	negativeText = "blurry, low quality, cartoon, drawing, illustration, sketch, unrealistic, text, words, letters, deformed, multiple dishes, hands"
)

// Client generates meal pictures with FAL's synchronous run endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a FAL client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey:  cfg.FalKey,
		baseURL: strings.TrimRight(cfg.FalBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

type falRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	ImageSize      string `json:"image_size,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
	NumImages      int    `json:"num_images,omitempty"`
}

type falResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// GenerateMealImage returns the URL of a photo of the named meal.
func (c *Client) GenerateMealImage(ctx context.Context, mealName string) (string, error) {
	log.Printf("Generating image for meal: %s", mealName)
	url, err := c.run(ctx, mealModel, falRequest{Prompt: mealName + mealSuffix})
	if err != nil {
		return "", fmt.Errorf("failed to generate image for %s: %w", mealName, err)
	}
	return url, nil
}

// Generate renders a free-form prompt as a square, high-resolution JPEG.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.run(ctx, freeModel, falRequest{
		Prompt:         prompt,
		NegativePrompt: negativeText,
		ImageSize:      "square_hd",
		OutputFormat:   "jpeg",
		NumImages:      1,
	})
}

// GenerateAll generates one image per meal name. A failed meal maps to nil
// instead of failing the batch.
func (c *Client) GenerateAll(ctx context.Context, mealNames []string) (map[string]*string, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	log.Printf("Generating images for %d meals...", len(mealNames))

	var (
		mu      sync.Mutex
		results = make(map[string]*string, len(mealNames))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for _, name := range mealNames {
		name := name
		g.Go(func() error {
			var result *string
			url, err := c.GenerateMealImage(gctx, name)
			if err != nil {
				log.Printf("Warning: %v", err)
			} else {
				result = &url
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) run(ctx context.Context, model string, body falRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+model, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call FAL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("FAL returned status=%d body=%s", resp.StatusCode, msg)
	}

	var out falResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode FAL response: %w", err)
	}
	if len(out.Images) == 0 || out.Images[0].URL == "" {
		return "", errors.New("FAL response has no image URL")
	}
	return out.Images[0].URL, nil
}
