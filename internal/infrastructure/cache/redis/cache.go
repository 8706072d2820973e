package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

const keyPrefix = "placearchive:search:"

// Cache shares search results between API replicas. Backend failures are
// logged and treated as misses.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func New(opts Options) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]domain.PlaceCandidate, bool) {
	raw, err := c.client.Get(ctx, Key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("search_cache_get_failed", "key", key, "error", err)
		}
		return nil, false
	}
	var candidates []domain.PlaceCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		slog.Warn("search_cache_decode_failed", "key", key, "error", err)
		return nil, false
	}
	return candidates, true
}

func (c *Cache) Set(ctx context.Context, key string, candidates []domain.PlaceCandidate) {
	if candidates == nil {
		candidates = []domain.PlaceCandidate{}
	}
	raw, err := json.Marshal(candidates)
	if err != nil {
		slog.Warn("search_cache_encode_failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, Key(key), raw, c.ttl).Err(); err != nil {
		slog.Warn("search_cache_set_failed", "key", key, "error", err)
	}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func Key(key string) string {
	return keyPrefix + key
}
