package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"

	"shopsense/internal/cache"
	"shopsense/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps sessions for their TTL only; nothing outlives a logout.
type Store interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type MemoryStore struct {
	items *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	v, ok := m.items.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := v.(models.Session)
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *models.Session, ttl time.Duration) error {
	m.items.Set(s.ID, *s, ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.items.Delete(id)
	return nil
}

type RedisStore struct {
	client *cache.Client
}

func NewRedisStore(client *cache.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, redisKey(id))
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(s.ID), data, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, redisKey(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
