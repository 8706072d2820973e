// Package search decorates place searchers with a shared result cache.
package search

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

type CacheObserver interface {
	ObserveSearchCache(result string)
}

// CachedSearcher answers repeated queries from cache and collapses concurrent
// identical lookups into one upstream call. Errors are never cached.
type CachedSearcher struct {
	next     ports.PlaceSearcher
	cache    ports.SearchCache
	observer CacheObserver
	group    singleflight.Group
}

func NewCachedSearcher(next ports.PlaceSearcher, cache ports.SearchCache, observer CacheObserver) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache, observer: observer}
}

func (s *CachedSearcher) SearchPlaces(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	key := CacheKey(query)
	if s.cache == nil || key == "" {
		return s.next.SearchPlaces(ctx, query)
	}

	if cached, ok := s.cache.Get(ctx, key); ok {
		s.observe("hit")
		return cloneCandidates(cached), nil
	}
	s.observe("miss")

	v, err, _ := s.group.Do(key, func() (any, error) {
		found, err := s.next.SearchPlaces(ctx, query)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, key, found)
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneCandidates(v.([]domain.PlaceCandidate)), nil
}

func (s *CachedSearcher) observe(result string) {
	if s.observer != nil {
		s.observer.ObserveSearchCache(result)
	}
}

// CacheKey lowercases the query and collapses inner whitespace.
func CacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func cloneCandidates(in []domain.PlaceCandidate) []domain.PlaceCandidate {
	if in == nil {
		return nil
	}
	out := make([]domain.PlaceCandidate, len(in))
	copy(out, in)
	return out
}
