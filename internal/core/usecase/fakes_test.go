package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

type categoryStoreFake struct {
	categories []domain.Category
	err        error
}

func (f categoryStoreFake) ListCategories(context.Context) ([]domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f categoryStoreFake) FindCategoryByName(_ context.Context, name string) (*domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.categories {
		if c.Name == name {
			copyCat := c
			return &copyCat, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "find category", fmt.Errorf("name=%s", name))
}

type searcherFake struct {
	results map[string][]domain.PlaceCandidate
	err     error
	calls   int
}

func (f *searcherFake) SearchPlaces(_ context.Context, query string) ([]domain.PlaceCandidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

// placeStoreFake is an in-memory PlaceStore whose transaction view is itself.
type placeStoreFake struct {
	places    map[string]*domain.Place
	links     []domain.UserPlace
	locations map[string]string

	listErr     error
	txErr       error
	locationErr error
	locked      []string
}

func newPlaceStoreFake() *placeStoreFake {
	return &placeStoreFake{
		places:    make(map[string]*domain.Place),
		locations: make(map[string]string),
	}
}

func (f *placeStoreFake) seed(userID string, place domain.Place) string {
	p := place
	f.places[p.ID] = &p
	linkID := "link-" + p.ID + "-" + userID
	f.links = append(f.links, domain.UserPlace{ID: linkID, UserID: userID, PlaceID: p.ID, CreatedAt: time.Now().UTC()})
	return linkID
}

func (f *placeStoreFake) ListSavedPlaces(_ context.Context, userID string) ([]domain.SavedPlace, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.SavedPlace, 0)
	for _, link := range f.links {
		if link.UserID != userID {
			continue
		}
		p := f.places[link.PlaceID]
		out = append(out, domain.SavedPlace{
			UserPlaceID: link.ID,
			PlaceID:     p.ID,
			Name:        p.Name,
			Address:     p.Address,
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			Location:    f.locations[link.ID],
			SavedAt:     link.CreatedAt,
		})
	}
	return out, nil
}

func (f *placeStoreFake) DeleteUserPlace(_ context.Context, userID, userPlaceID string) error {
	for i, link := range f.links {
		if link.ID == userPlaceID && link.UserID == userID {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}
	return domain.WrapError(domain.ErrNotFound, "delete user place", errors.New(userPlaceID))
}

func (f *placeStoreFake) UpdateUserPlaceLocation(_ context.Context, userPlaceID, location string) error {
	if f.locationErr != nil {
		return f.locationErr
	}
	f.locations[userPlaceID] = location
	return nil
}

func (f *placeStoreFake) InTx(_ context.Context, fn func(tx ports.PlaceTx) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	return fn(f)
}

func (f *placeStoreFake) LockPlaceName(_ context.Context, name string) error {
	f.locked = append(f.locked, name)
	return nil
}

func (f *placeStoreFake) FindPlaceByName(_ context.Context, name string) (*domain.Place, error) {
	for _, p := range f.places {
		if p.Name == name {
			copyPlace := *p
			return &copyPlace, nil
		}
	}
	return nil, nil
}

func (f *placeStoreFake) CreatePlace(_ context.Context, place *domain.Place) error {
	p := *place
	f.places[p.ID] = &p
	return nil
}

func (f *placeStoreFake) BackfillPlace(_ context.Context, placeID string, candidate domain.PlaceCandidate) error {
	p, ok := f.places[placeID]
	if !ok {
		return errors.New("place missing")
	}
	backfill(p, candidate)
	return nil
}

func (f *placeStoreFake) LinkUserPlace(_ context.Context, link *domain.UserPlace) (string, error) {
	for _, existing := range f.links {
		if existing.UserID == link.UserID && existing.PlaceID == link.PlaceID {
			return existing.ID, nil
		}
	}
	f.links = append(f.links, *link)
	return link.ID, nil
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string      { return &v }
