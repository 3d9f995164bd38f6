package ai

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return NewConfig(
		WithHost("https://api.example.com/v1"),
		WithAPIKey("secret"),
		WithModel("gpt-4o-mini"),
	)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Empty(t, cfg.Host)
	assert.Empty(t, cfg.Model)
	assert.Equal(t, 8192, cfg.MaxTokens)
	assert.Equal(t, 0.0, cfg.Temperature)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, 8192, cfg.MaxTokens)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://localhost:11434/v1"),
			WithAPIKey("k"),
			WithModel("qwen2.5:7b"),
			WithMaxTokens(1024),
			WithTemperature(0.2),
		)

		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
		assert.Equal(t, "k", cfg.APIKey)
		assert.Equal(t, "qwen2.5:7b", cfg.Model)
		assert.Equal(t, 1024, cfg.MaxTokens)
		assert.Equal(t, 0.2, cfg.Temperature)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{name: "already clean", host: "http://localhost:11434/v1", expected: "http://localhost:11434/v1"},
		{name: "trailing slash", host: "http://localhost:11434/v1/", expected: "http://localhost:11434/v1"},
		{name: "several slashes", host: "http://localhost:11434/v1///", expected: "http://localhost:11434/v1"},
		{name: "whitespace", host: "  https://api.example.com/v1 ", expected: "https://api.example.com/v1"},
		{name: "empty", host: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.Host)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validConfig()
		cfg.Host = "https://api.example.com/v1/"

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://api.example.com/v1", cfg.Host)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "missing host", mutate: func(c *Config) { c.Host = "" }, wantErr: ErrHostRequired},
		{name: "host without scheme", mutate: func(c *Config) { c.Host = "api.example.com" }, wantErr: ErrInvalidHost},
		{name: "missing api key", mutate: func(c *Config) { c.APIKey = " " }, wantErr: ErrAPIKeyRequired},
		{name: "missing model", mutate: func(c *Config) { c.Model = "" }, wantErr: ErrModelRequired},
		{name: "zero max tokens", mutate: func(c *Config) { c.MaxTokens = 0 }, wantErr: ErrInvalidMaxTokens},
		{name: "temperature too high", mutate: func(c *Config) { c.Temperature = 2.5 }, wantErr: ErrInvalidTemperature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestConfigLogValueMasksKey(t *testing.T) {
	var sb strings.Builder
	logger := slog.New(slog.NewTextHandler(&sb, nil))

	logger.Info("config", "ai", *validConfig())

	assert.NotContains(t, sb.String(), "secret")
	assert.Contains(t, sb.String(), "****")
	assert.Contains(t, sb.String(), "gpt-4o-mini")
}

func TestRequestFile(t *testing.T) {
	req := &Request{Files: []File{{ID: 1, Path: "a.py"}, {ID: 2, Path: "b.py"}}}

	f, ok := req.File(2)
	require.True(t, ok)
	assert.Equal(t, "b.py", f.Path)

	_, ok = req.File(0)
	assert.False(t, ok)
	_, ok = req.File(3)
	assert.False(t, ok)
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "endpoint returned HTTP 429", (&StatusError{StatusCode: 429}).Error())
	assert.Equal(t, "endpoint returned HTTP 404: no such model",
		(&StatusError{StatusCode: 404, Body: "no such model"}).Error())
}
