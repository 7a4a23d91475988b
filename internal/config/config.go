package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the service, the interactive client,
// and the Workday tool server. Secrets are read from the environment only.
type Config struct {
	HTTPPort string

	// LLMProvider selects the completion backend: openai, gemini or anthropic.
	LLMProvider     string
	OpenAIAPIKey    string
	BaseURL         string
	GeminiAPIKey    string
	AnthropicAPIKey string
	Model           string
	MaxTokens       int

	// InitialTemperature is used on the call that offers tools to the model;
	// FinalTemperature on the summarizing call and must be lower.
	InitialTemperature float32
	FinalTemperature   float32

	// MCPServer is the transport spec used to reach the tool server.
	MCPServer         string
	SystemInstruction string

	// TranscriptStore is none, mongo or sqlite.
	TranscriptStore string
	MongoURI        string
	MongoDB         string
	SQLitePath      string

	WorkdayAPIURL   string
	WorkdayAPIToken string
	HRDocsDir       string

	LogLevel  string
	LogFormat string
}

const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	StoreNone   = "none"
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// Load reads an optional .env file from the working directory and builds the
// configuration from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := &Config{
		HTTPPort:          getHTTPPort(),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		BaseURL:           os.Getenv("BASE_URL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		Model:             getModel(),
		MCPServer:         getEnv("MCP_SERVER", "stdio://workday-mcp"),
		SystemInstruction: os.Getenv("SYSTEM_INSTRUCTION"),
		TranscriptStore:   strings.ToLower(getEnv("TRANSCRIPT_STORE", StoreNone)),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGODB_DB", "workday_mcp"),
		SQLitePath:        getEnv("SQLITE_PATH", "transcripts.db"),
		WorkdayAPIURL:     getEnv("WORKDAY_API_URL", "https://api.us.wcp.workday.com/common/v1/workers"),
		WorkdayAPIToken:   os.Getenv("WORKDAY_API_TOKEN"),
		HRDocsDir:         getEnv("HR_DOCS_DIR", "docs"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.MaxTokens, err = getInt("MAX_TOKENS", 4096); err != nil {
		return nil, err
	}
	if cfg.InitialTemperature, err = getFloat("INITIAL_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.FinalTemperature, err = getFloat("FINAL_TEMPERATURE", 0.5); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.TranscriptStore {
	case StoreNone, StoreMongo, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown TRANSCRIPT_STORE %q", c.TranscriptStore)
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("config: MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}

	if c.FinalTemperature >= c.InitialTemperature {
		return fmt.Errorf("config: FINAL_TEMPERATURE (%.2f) must be lower than INITIAL_TEMPERATURE (%.2f)", c.FinalTemperature, c.InitialTemperature)
	}

	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	return value
}

// getHTTPPort prefers PORT, which most hosting platforms inject.
func getHTTPPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}

	return getEnv("HTTP_PORT", "8080")
}

func getModel() string {
	if model := os.Getenv("MODEL_NAME"); model != "" {
		return model
	}

	return getEnv("MODEL", "gpt-3.5-turbo")
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}

	return v, nil
}

func getFloat(key string, fallback float32) (float32, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}

	return float32(v), nil
}
