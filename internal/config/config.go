package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	HTTPPort  string `validate:"required,numeric"`
	RedisAddr string `validate:"omitempty,hostname_port"`
	JWTSecret string `validate:"required,min=8"`
	LogLevel  string `validate:"oneof=debug info warn error"`

	GeminiAPIKey  string
	GeminiModel   string        `validate:"required"`
	GenAIBaseURL  string        `validate:"omitempty,url"`
	GenAITimeout  time.Duration `validate:"min=1s,max=2m"`
	BreakerFails  int           `validate:"min=1,max=1000"`
	BreakerWindow time.Duration `validate:"min=1s"`

	SessionTTL      time.Duration `validate:"min=1m"`
	RateLimitMax    int           `validate:"min=1"`
	RateLimitWindow time.Duration `validate:"min=1s"`
}

func NewConfig() *Config {
	return &Config{
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		RedisAddr: getEnv("REDIS_ADDR", ""),
		JWTSecret: getEnv("JWT_SECRET", "shopsense-dev-secret"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GenAIBaseURL:  getEnv("GENAI_BASE_URL", ""),
		GenAITimeout:  getDurationEnv("GENAI_TIMEOUT", 30*time.Second),
		BreakerFails:  getIntEnv("GENAI_BREAKER_FAILURES", 3),
		BreakerWindow: getDurationEnv("GENAI_BREAKER_TIMEOUT", 30*time.Second),

		SessionTTL:      getDurationEnv("SESSION_TTL", 24*time.Hour),
		RateLimitMax:    getIntEnv("RATE_LIMIT_MAX", 10),
		RateLimitWindow: getDurationEnv("RATE_LIMIT_WINDOW", 60*time.Second),
	}
}

// Validate checks value ranges. The Gemini key is deliberately not required
// here: without it the service still runs with personalization disabled.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
