package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

type SavePlaceUseCase struct {
	categories ports.CategoryStore
	places     ports.PlaceStore
	resolver   *PlaceResolver
	duplicates *DuplicateDetector
}

func NewSavePlaceUseCase(
	categories ports.CategoryStore,
	places ports.PlaceStore,
	resolver *PlaceResolver,
	duplicates *DuplicateDetector,
) *SavePlaceUseCase {
	return &SavePlaceUseCase{
		categories: categories,
		places:     places,
		resolver:   resolver,
		duplicates: duplicates,
	}
}

func (uc *SavePlaceUseCase) Save(ctx context.Context, req domain.SaveRequest) (*domain.SaveResult, error) {
	name := strings.TrimSpace(req.Place.Name)
	if name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save place", errors.New("place name is required"))
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "save place", errors.New("user id is required"))
	}

	category, err := uc.categories.FindCategoryByName(ctx, strings.TrimSpace(req.CategoryName))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrCategoryNotFound, "save place", fmt.Errorf("category %q", req.CategoryName))
		}
		return nil, domain.WrapError(domain.ErrStorage, "find category", err)
	}

	candidate, ambiguous := uc.resolver.Enrich(ctx, name, req.Selected)

	if uc.duplicates.IsDuplicate(ctx, req.UserID, name, candidate) {
		return nil, domain.WrapError(domain.ErrDuplicatePlace, "save place", fmt.Errorf("%q is already in the archive", name))
	}

	var (
		place  domain.Place
		linkID string
	)
	err = uc.places.InTx(ctx, func(tx ports.PlaceTx) error {
		if err := tx.LockPlaceName(ctx, name); err != nil {
			return err
		}

		existing, err := tx.FindPlaceByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			place = *existing
			if candidate != nil {
				if err := tx.BackfillPlace(ctx, place.ID, *candidate); err != nil {
					return err
				}
				backfill(&place, *candidate)
			}
		} else {
			place = newPlace(name, category.ID, candidate)
			if err := tx.CreatePlace(ctx, &place); err != nil {
				return err
			}
		}

		linkID, err = tx.LinkUserPlace(ctx, &domain.UserPlace{
			ID:        uuid.NewString(),
			UserID:    req.UserID,
			PlaceID:   place.ID,
			CreatedAt: time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "save place", err)
	}

	if location := strings.TrimSpace(req.Location); location != "" {
		if err := uc.places.UpdateUserPlaceLocation(ctx, linkID, location); err != nil {
			slog.Warn("location_update_skipped", "user_place_id", linkID, "error", err)
		}
	}

	return &domain.SaveResult{
		Outcome:     domain.SaveOutcomeSaved,
		Place:       place,
		UserPlaceID: linkID,
		Candidate:   candidate,
		Ambiguous:   ambiguous,
	}, nil
}

func newPlace(name, categoryID string, candidate *domain.PlaceCandidate) domain.Place {
	place := domain.Place{
		ID:         uuid.NewString(),
		Name:       name,
		CategoryID: categoryID,
		CreatedAt:  time.Now().UTC(),
	}
	if candidate != nil {
		backfill(&place, *candidate)
	}
	return place
}

func backfill(place *domain.Place, candidate domain.PlaceCandidate) {
	if place.Address == nil && candidate.Address != "" {
		address := candidate.Address
		place.Address = &address
	}
	if !place.HasCoordinates() {
		lat, lng := candidate.Latitude, candidate.Longitude
		place.Latitude = &lat
		place.Longitude = &lng
	}
}
