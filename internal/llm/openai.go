package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dont-get-fat/internal/config"
	"dont-get-fat/internal/shared"
)

const (
	groqModel = "llama-3.3-70b-versatile"
)

// chatClient speaks the OpenAI chat/completions protocol, which Groq also serves.
type chatClient struct {
	provider   string
	apiKey     string
	keyVar     string
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the OpenAI API (or any compatible base URL).
func NewOpenAIClient(cfg *config.Config) TextGenerator {
	return newChatClient("openai", cfg.OpenAIAPIKey, "OPENAI_API_KEY", cfg.OpenAIBaseURL, cfg.OpenAIModel)
}

// NewGroqClient creates a new Groq API client.
func NewGroqClient(cfg *config.Config) TextGenerator {
	return newChatClient("groq", cfg.GroqAPIKey, "GROQ_API_KEY", cfg.GroqBaseURL, groqModel)
}

func newChatClient(provider, apiKey, keyVar, baseURL, model string) *chatClient {
	return &chatClient{
		provider: provider,
		apiKey:   apiKey,
		keyVar:   keyVar,
		endpoint: strings.TrimRight(baseURL, "/") + "/chat/completions",
		model:    model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateContent sends the prompt as a system + user conversation and returns the reply.
func (c *chatClient) GenerateContent(ctx context.Context, prompt Prompt) (ContentResponse, error) {
	if c.apiKey == "" {
		return ContentResponse{}, fmt.Errorf("%w: %s is not set", ErrNotConfigured, c.keyVar)
	}

	reqBody := chatRequest{
		Model:       c.model,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}
	if prompt.System != "" {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: prompt.System})
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: prompt.User})
	if prompt.JSON {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("%w: failed to send request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ContentResponse{}, fmt.Errorf("%w: %s api status=%d", ErrUnauthorized, c.provider, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ContentResponse{}, fmt.Errorf("%w: %s api error: status=%d body=%s", ErrUpstream, c.provider, resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return ContentResponse{}, fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return ContentResponse{}, ErrEmptyContent
	}

	model := chatResp.Model
	if model == "" {
		model = c.model
	}
	return ContentResponse{
		Content: chatResp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
			Model:            model,
		},
	}, nil
}
