package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter is the single-process rate limiter used when no Redis
// address is configured. Windows are fixed from the first hit.
type MemoryLimiter struct {
	hits *gocache.Cache
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{hits: gocache.New(time.Minute, 5*time.Minute)}
}

func (m *MemoryLimiter) IsRateLimited(_ context.Context, key string, limit int, window time.Duration) bool {
	key = fmt.Sprintf("ratelimit:%s", key)

	if err := m.hits.Add(key, int64(1), window); err == nil {
		return 1 > limit
	}

	n, err := m.hits.IncrementInt64(key, 1)
	if err != nil {
		// Expired between Add and Increment; start a new window.
		m.hits.Set(key, int64(1), window)
		return 1 > limit
	}
	return n > int64(limit)
}
