package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	// LLM
	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GroqAPIKey    string
	GroqBaseURL   string
	GeminiAPIKey  string
	GeminiModel   string
	LLMCachePath  string

	// Image generation
	FalKey     string
	FalBaseURL string

	// Storage
	DataDir      string
	DatabasePath string

	// HTTP API
	Port          string
	AuthJWTSecret string
	APIBaseURL    string
	APIToken      string

	// UserID identifies the local CLI user.
	UserID string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
// Variables from a .env file in the working directory are loaded first when present.
// Credentials are optional here; features without them report "not configured" when used.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		GroqAPIKey:    os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:   getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		LLMCachePath:  os.Getenv("LLM_CACHE_PATH"),

		FalKey:     os.Getenv("FAL_KEY"),
		FalBaseURL: getEnv("FAL_BASE_URL", "https://fal.run"),

		DataDir:      dataDir,
		DatabasePath: getEnv("DATABASE_PATH", filepath.Join(dataDir, "meal-planner.db")),

		Port:          getEnv("PORT", "3000"),
		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:3000"),
		APIToken:      os.Getenv("API_TOKEN"),

		UserID: getEnv("USER_ID", "local"),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("PORT environment variable is invalid: %w", err)
	}

	ids, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS environment variable is invalid: %w", err)
	}
	cfg.TelegramAllowedUserIDs = ids

	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID environment variable is invalid: %w", err)
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

// HasLLMCredentials reports whether the selected provider has an API key.
func (c *Config) HasLLMCredentials() bool {
	switch strings.ToLower(c.LLMProvider) {
	case "", "openai":
		return c.OpenAIAPIKey != ""
	case "groq":
		return c.GroqAPIKey != ""
	case "gemini":
		return c.GeminiAPIKey != ""
	}
	return false
}

// ValidateTelegram checks the settings the bot cannot start without.
func (c *Config) ValidateTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if len(c.TelegramAllowedUserIDs) == 0 {
		return fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS environment variable not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
