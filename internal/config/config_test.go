package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "HTTP_PORT", "LLM_PROVIDER", "MODEL_NAME", "MODEL", "MAX_TOKENS",
		"INITIAL_TEMPERATURE", "FINAL_TEMPERATURE", "MCP_SERVER", "TRANSCRIPT_STORE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Model)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.InDelta(t, 0.7, cfg.InitialTemperature, 1e-6)
	assert.InDelta(t, 0.5, cfg.FinalTemperature, 1e-6)
	assert.Equal(t, "stdio://workday-mcp", cfg.MCPServer)
	assert.Equal(t, StoreNone, cfg.TranscriptStore)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("MODEL_NAME", "gemini-2.5-flash")
	t.Setenv("MAX_TOKENS", "512")
	t.Setenv("TRANSCRIPT_STORE", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, StoreSQLite, cfg.TranscriptStore)
}

func TestLoadInvalidNumber(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_TOKENS", "lots")

	_, err := Load()
	require.ErrorContains(t, err, "MAX_TOKENS")
}

func TestValidate(t *testing.T) {
	base := Config{
		LLMProvider:        ProviderOpenAI,
		TranscriptStore:    StoreNone,
		MaxTokens:          100,
		InitialTemperature: 0.7,
		FinalTemperature:   0.5,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.LLMProvider = "llama" }, wantErr: "LLM_PROVIDER"},
		{name: "unknown store", mutate: func(c *Config) { c.TranscriptStore = "redis" }, wantErr: "TRANSCRIPT_STORE"},
		{name: "zero tokens", mutate: func(c *Config) { c.MaxTokens = 0 }, wantErr: "MAX_TOKENS"},
		{name: "final not lower", mutate: func(c *Config) { c.FinalTemperature = 0.7 }, wantErr: "FINAL_TEMPERATURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}

	cfg.NewLogger(&buf).Debug("hello", "k", "v")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
