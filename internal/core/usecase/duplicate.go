package usecase

import (
	"context"
	"log/slog"
	"math"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

// CoordinateTolerance is the per-axis distance, in degrees, under which two
// places count as the same spot.
const CoordinateTolerance = 0.001

type DuplicateDetector struct {
	places ports.PlaceStore
}

func NewDuplicateDetector(places ports.PlaceStore) *DuplicateDetector {
	return &DuplicateDetector{places: places}
}

// IsDuplicate reports whether the user already saved this place. A failed
// lookup is treated as "not a duplicate".
func (d *DuplicateDetector) IsDuplicate(ctx context.Context, userID, name string, candidate *domain.PlaceCandidate) bool {
	saved, err := d.places.ListSavedPlaces(ctx, userID)
	if err != nil {
		slog.Warn("duplicate_check_failed_open", "user_id", userID, "name", name, "error", err)
		return false
	}
	return MatchesSavedPlace(saved, name, candidate)
}

// MatchesSavedPlace runs the tiered comparison: coordinates first, then exact
// name and address when an address is known, and exact name alone only when
// neither coordinates nor address are available.
func MatchesSavedPlace(saved []domain.SavedPlace, name string, candidate *domain.PlaceCandidate) bool {
	hasCoords := candidate != nil
	address := ""
	if candidate != nil {
		address = candidate.Address
	}

	if hasCoords {
		for _, s := range saved {
			if !s.HasCoordinates() {
				continue
			}
			if math.Abs(*s.Latitude-candidate.Latitude) < CoordinateTolerance &&
				math.Abs(*s.Longitude-candidate.Longitude) < CoordinateTolerance {
				return true
			}
		}
	}

	if address != "" {
		for _, s := range saved {
			if s.Name == name && s.Address != nil && *s.Address == address {
				return true
			}
		}
	}

	if !hasCoords && address == "" {
		for _, s := range saved {
			if s.Name == name {
				return true
			}
		}
	}

	return false
}
