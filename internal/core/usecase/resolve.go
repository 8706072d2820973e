package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

// PlaceResolver turns a place name into map candidates. Provider failures
// degrade to "no candidates" so a save can proceed without coordinates.
type PlaceResolver struct {
	searcher ports.PlaceSearcher
}

func NewPlaceResolver(searcher ports.PlaceSearcher) *PlaceResolver {
	return &PlaceResolver{searcher: searcher}
}

func (r *PlaceResolver) Resolve(ctx context.Context, name string) []domain.PlaceCandidate {
	query := strings.TrimSpace(name)
	if query == "" || r.searcher == nil {
		return nil
	}
	candidates, err := r.searcher.SearchPlaces(ctx, query)
	if err != nil {
		slog.Warn("place_search_failed", "query", query, "error", err)
		return nil
	}
	return candidates
}

// Enrich applies the enrichment policy: an explicit selection wins, a single
// match is accepted, several matches fall back to the first one and are flagged
// ambiguous, no match leaves the place without coordinates.
func (r *PlaceResolver) Enrich(ctx context.Context, name string, selected *domain.PlaceCandidate) (*domain.PlaceCandidate, bool) {
	if selected != nil {
		pick := *selected
		return &pick, false
	}

	candidates := r.Resolve(ctx, name)
	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		pick := candidates[0]
		return &pick, false
	default:
		slog.Info("place_search_ambiguous", "query", name, "candidates", len(candidates))
		pick := candidates[0]
		return &pick, true
	}
}
