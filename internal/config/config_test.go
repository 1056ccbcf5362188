package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "REDIS_ADDR", "GEMINI_API_KEY", "GEMINI_MODEL", "GENAI_TIMEOUT", "SESSION_TTL"} {
		t.Setenv(k, "")
	}
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("GENAI_TIMEOUT", "30s")
	t.Setenv("SESSION_TTL", "24h")

	cfg := NewConfig()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.GenAITimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.GeminiAPIKey)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GENAI_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_MAX", "3")

	cfg := NewConfig()
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "k", cfg.GeminiAPIKey)
	assert.Equal(t, 5*time.Second, cfg.GenAITimeout)
	assert.Equal(t, 3, cfg.RateLimitMax)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig_BadNumbersFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "lots")
	t.Setenv("GENAI_TIMEOUT", "soon")

	cfg := NewConfig()
	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, 30*time.Second, cfg.GenAITimeout)
}

func TestNewConfig_NegativeBreakerFailuresRejected(t *testing.T) {
	t.Setenv("GENAI_BREAKER_FAILURES", "-1")

	cfg := NewConfig()
	assert.Equal(t, -1, cfg.BreakerFails)
	assert.ErrorContains(t, cfg.Validate(), "BreakerFails")
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"port not numeric":  func(c *Config) { c.HTTPPort = "http" },
		"short jwt secret":  func(c *Config) { c.JWTSecret = "x" },
		"unknown log level": func(c *Config) { c.LogLevel = "loud" },
		"bad redis addr":    func(c *Config) { c.RedisAddr = "no-port" },
		"bad base url":      func(c *Config) { c.GenAIBaseURL = "::nope" },
		"zero timeout":      func(c *Config) { c.GenAITimeout = 0 },
		"zero rate limit":   func(c *Config) { c.RateLimitMax = 0 },
		"zero breaker":      func(c *Config) { c.BreakerFails = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func validConfig() *Config {
	return &Config{
		HTTPPort:        "8080",
		JWTSecret:       "0123456789",
		LogLevel:        "info",
		GeminiModel:     "gemini-2.5-flash",
		GenAITimeout:    10 * time.Second,
		BreakerFails:    3,
		BreakerWindow:   30 * time.Second,
		SessionTTL:      time.Hour,
		RateLimitMax:    10,
		RateLimitWindow: time.Minute,
	}
}
