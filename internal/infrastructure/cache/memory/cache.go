package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

// Cache keeps search results in process memory.
type Cache struct {
	store *gocache.Cache
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{store: gocache.New(ttl, 2*ttl)}
}

func (c *Cache) Get(_ context.Context, key string) ([]domain.PlaceCandidate, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	candidates, ok := v.([]domain.PlaceCandidate)
	return candidates, ok
}

func (c *Cache) Set(_ context.Context, key string, candidates []domain.PlaceCandidate) {
	stored := make([]domain.PlaceCandidate, len(candidates))
	copy(stored, candidates)
	c.store.Set(key, stored, gocache.DefaultExpiration)
}

func (c *Cache) Len() int {
	return c.store.ItemCount()
}
