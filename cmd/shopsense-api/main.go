package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopsense/internal/api"
	"shopsense/internal/auth"
	"shopsense/internal/cache"
	"shopsense/internal/config"
	"shopsense/internal/recommend"
	"shopsense/internal/session"
	"shopsense/internal/signals"
	"shopsense/internal/telemetry"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.NewConfig()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if envErr != nil {
		slog.Debug("No .env file loaded", "error", envErr)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting ShopSense API", "port", cfg.HTTPPort, "model", cfg.GeminiModel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store   session.Store
		limiter api.RateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
		store = session.NewRedisStore(redisClient)
		limiter = redisClient
	} else {
		slog.Warn("REDIS_ADDR not set, sessions and rate limits are kept in memory")
		store = session.NewMemoryStore()
		limiter = cache.NewMemoryLimiter()
	}

	pipeline := recommend.NewPipeline(signals.NewGenerator(nil), newRecommender(ctx, cfg))

	authMiddleware := auth.NewMiddleware(cfg.JWTSecret, cfg.SessionTTL)
	handler := api.NewHandler(
		session.NewService(store, cfg.SessionTTL),
		pipeline,
		authMiddleware,
		limiter,
		cfg.RateLimitMax,
		cfg.RateLimitWindow,
	)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.Register(mux)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           telemetry.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Server listening", "addr", serverAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// newRecommender returns nil when the generative client cannot be built,
// which switches personalization off instead of failing every request.
func newRecommender(ctx context.Context, cfg *config.Config) recommend.Recommender {
	client, err := recommend.NewClient(ctx, recommend.Config{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		BaseURL:         cfg.GenAIBaseURL,
		Timeout:         cfg.GenAITimeout,
		BreakerFailures: uint32(cfg.BreakerFails),
		BreakerTimeout:  cfg.BreakerWindow,
	})
	if err != nil {
		var cfgErr *recommend.ConfigError
		if errors.As(err, &cfgErr) {
			slog.Warn("Personalization disabled", "error", err)
		} else {
			slog.Error("Recommendation client unavailable", "error", err)
		}
		return nil
	}
	return client
}
