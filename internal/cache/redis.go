package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"shopsense/internal/resilience"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
}

// NewClient connects and pings Redis, retrying a few times so the API can
// start alongside a Redis container that is still booting.
func NewClient(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	err := resilience.Retry(ctx, 3, time.Second, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", addr, err)
	}

	return &Client{rdb: rdb}, nil
}

// IsRateLimited counts a hit for key and reports whether more than limit
// hits landed in the current fixed window. The window starts at the first
// hit and is not extended by later ones. Redis errors fail open.
func (c *Client) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) bool {
	key = fmt.Sprintf("ratelimit:%s", key)

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("Rate limiter unavailable", "error", err)
		return false
	}

	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			// Without a TTL the counter would never reset.
			slog.Warn("Rate limiter window not set", "key", key, "error", err)
			_ = c.rdb.Del(ctx, key).Err()
			return false
		}
	}

	return count > int64(limit)
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
