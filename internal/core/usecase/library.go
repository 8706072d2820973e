package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

// AllFilterValue is the menu entry that disables a filter.
const AllFilterValue = "전체"

type LibraryUseCase struct {
	places   ports.PlaceStore
	exporter ports.LibraryExporter
}

func NewLibraryUseCase(places ports.PlaceStore, exporter ports.LibraryExporter) *LibraryUseCase {
	return &LibraryUseCase{places: places, exporter: exporter}
}

func (uc *LibraryUseCase) List(ctx context.Context, userID string, filter domain.LibraryFilter) (*domain.Library, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "list places", errors.New("user id is required"))
	}
	switch filter.Sort {
	case "":
		filter.Sort = domain.SortLatest
	case domain.SortLatest, domain.SortName:
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "list places", fmt.Errorf("unknown sort %q", filter.Sort))
	}

	saved, err := uc.places.ListSavedPlaces(ctx, userID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "list places", err)
	}

	lib := &domain.Library{
		Places:     make([]domain.SavedPlace, 0, len(saved)),
		Categories: distinct(saved, func(p domain.SavedPlace) string { return p.Category.Name }),
		Locations:  distinct(saved, func(p domain.SavedPlace) string { return p.Location }),
	}
	for _, p := range saved {
		if !matchesFilter(filter.Category, p.Category.Name) || !matchesFilter(filter.Location, p.Location) {
			continue
		}
		p.MapLinks = domain.MapLinksFor(p.Name)
		lib.Places = append(lib.Places, p)
	}

	switch filter.Sort {
	case domain.SortName:
		sort.SliceStable(lib.Places, func(i, j int) bool { return lib.Places[i].Name < lib.Places[j].Name })
	default:
		sort.SliceStable(lib.Places, func(i, j int) bool { return lib.Places[i].SavedAt.After(lib.Places[j].SavedAt) })
	}
	lib.Total = len(lib.Places)
	return lib, nil
}

func (uc *LibraryUseCase) Delete(ctx context.Context, userID, userPlaceID string) error {
	if strings.TrimSpace(userPlaceID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete place", errors.New("id is required"))
	}
	if err := uc.places.DeleteUserPlace(ctx, userID, userPlaceID); err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return err
		}
		return domain.WrapError(domain.ErrStorage, "delete place", err)
	}
	return nil
}

func (uc *LibraryUseCase) Export(ctx context.Context, userID string, w io.Writer) error {
	lib, err := uc.List(ctx, userID, domain.LibraryFilter{Sort: domain.SortLatest})
	if err != nil {
		return err
	}
	if err := uc.exporter.WriteLibrary(w, lib.Places); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func (uc *LibraryUseCase) ExportContentType() string {
	return uc.exporter.ContentType()
}

func matchesFilter(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || want == AllFilterValue || want == got
}

func distinct(places []domain.SavedPlace, key func(domain.SavedPlace) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range places {
		v := key(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
