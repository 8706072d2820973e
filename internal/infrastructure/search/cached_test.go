package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/infrastructure/cache/memory"
)

type searcherFake struct {
	calls  atomic.Int32
	delay  time.Duration
	err    error
	result []domain.PlaceCandidate
}

func (f *searcherFake) SearchPlaces(context.Context, string) ([]domain.PlaceCandidate, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type observerFake struct {
	mu      sync.Mutex
	results map[string]int
}

func (o *observerFake) ObserveSearchCache(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[string]int{}
	}
	o.results[result]++
}

func TestCachedSearcherServesRepeatedQueriesFromCache(t *testing.T) {
	next := &searcherFake{result: []domain.PlaceCandidate{{Name: "Bakery A", Latitude: 37.5, Longitude: 127}}}
	obs := &observerFake{}
	s := NewCachedSearcher(next, memory.New(time.Minute), obs)

	for _, q := range []string{"Bakery A", "  bakery   a ", "BAKERY A"} {
		got, err := s.SearchPlaces(context.Background(), q)
		if err != nil {
			t.Fatalf("SearchPlaces(%q) error = %v", q, err)
		}
		if len(got) != 1 || got[0].Name != "Bakery A" {
			t.Fatalf("unexpected result for %q: %+v", q, got)
		}
	}
	if next.calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls.Load())
	}
	if obs.results["hit"] != 2 || obs.results["miss"] != 1 {
		t.Fatalf("unexpected cache observations: %v", obs.results)
	}
}

func TestCachedSearcherDoesNotCacheErrors(t *testing.T) {
	errDown := errors.New("down")
	next := &searcherFake{err: errDown}
	s := NewCachedSearcher(next, memory.New(time.Minute), nil)

	for i := 0; i < 2; i++ {
		if _, err := s.SearchPlaces(context.Background(), "Bakery A"); !errors.Is(err, errDown) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}
	if next.calls.Load() != 2 {
		t.Fatalf("errors must not be cached, got %d calls", next.calls.Load())
	}
}

func TestCachedSearcherCollapsesConcurrentLookups(t *testing.T) {
	next := &searcherFake{delay: 30 * time.Millisecond, result: []domain.PlaceCandidate{{Name: "Cafe"}}}
	s := NewCachedSearcher(next, memory.New(time.Minute), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.SearchPlaces(context.Background(), "cafe"); err != nil {
				t.Errorf("SearchPlaces() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if next.calls.Load() != 1 {
		t.Fatalf("expected collapsed upstream call, got %d", next.calls.Load())
	}
}

func TestCachedSearcherReturnsIndependentSlices(t *testing.T) {
	next := &searcherFake{result: []domain.PlaceCandidate{{Name: "Cafe"}}}
	s := NewCachedSearcher(next, memory.New(time.Minute), nil)

	first, _ := s.SearchPlaces(context.Background(), "cafe")
	first[0].Name = "mutated"
	second, _ := s.SearchPlaces(context.Background(), "cafe")
	if second[0].Name != "Cafe" {
		t.Fatalf("cache entry was mutated through a returned slice: %+v", second)
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("  Bakery \t A  "); got != "bakery a" {
		t.Fatalf("CacheKey() = %q", got)
	}
}
