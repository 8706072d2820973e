package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

type placeListFake struct {
	*placeStoreFake
	saved []domain.SavedPlace
}

func (f placeListFake) ListSavedPlaces(context.Context, string) ([]domain.SavedPlace, error) {
	return f.saved, nil
}

type exporterFake struct {
	written []domain.SavedPlace
	err     error
}

func (f *exporterFake) ContentType() string { return "text/plain" }

func (f *exporterFake) WriteLibrary(w io.Writer, places []domain.SavedPlace) error {
	if f.err != nil {
		return f.err
	}
	f.written = places
	for _, p := range places {
		_, _ = io.WriteString(w, p.Name+"\n")
	}
	return nil
}

func libraryFixture() []domain.SavedPlace {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	return []domain.SavedPlace{
		{UserPlaceID: "1", Name: "Cafe B", Category: domain.Category{Name: "카페"}, Location: "성수", SavedAt: base},
		{UserPlaceID: "2", Name: "Bakery A", Category: domain.Category{Name: "베이커리"}, Location: "연남", SavedAt: base.Add(2 * time.Hour)},
		{UserPlaceID: "3", Name: "Cafe A", Category: domain.Category{Name: "카페"}, SavedAt: base.Add(time.Hour)},
	}
}

func TestLibraryListSortsLatestFirstByDefault(t *testing.T) {
	uc := NewLibraryUseCase(placeListFake{placeStoreFake: newPlaceStoreFake(), saved: libraryFixture()}, &exporterFake{})

	lib, err := uc.List(context.Background(), "user-1", domain.LibraryFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := []string{lib.Places[0].UserPlaceID, lib.Places[1].UserPlaceID, lib.Places[2].UserPlaceID}
	if strings.Join(got, ",") != "2,3,1" {
		t.Fatalf("unexpected order %v", got)
	}
	if lib.Total != 3 {
		t.Fatalf("expected total 3, got %d", lib.Total)
	}
	if strings.Join(lib.Categories, ",") != "베이커리,카페" || strings.Join(lib.Locations, ",") != "성수,연남" {
		t.Fatalf("unexpected filter menus: %v / %v", lib.Categories, lib.Locations)
	}
	if lib.Places[0].MapLinks.Kakao != "https://map.kakao.com/link/search/Bakery%20A" {
		t.Fatalf("unexpected kakao link %s", lib.Places[0].MapLinks.Kakao)
	}
}

func TestLibraryListFiltersAndSortsByName(t *testing.T) {
	uc := NewLibraryUseCase(placeListFake{placeStoreFake: newPlaceStoreFake(), saved: libraryFixture()}, &exporterFake{})

	lib, err := uc.List(context.Background(), "user-1", domain.LibraryFilter{Category: "카페", Location: AllFilterValue, Sort: domain.SortName})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if lib.Total != 2 || lib.Places[0].Name != "Cafe A" || lib.Places[1].Name != "Cafe B" {
		t.Fatalf("unexpected filtered list: %+v", lib.Places)
	}

	lib, err = uc.List(context.Background(), "user-1", domain.LibraryFilter{Location: "성수"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if lib.Total != 1 || lib.Places[0].UserPlaceID != "1" {
		t.Fatalf("unexpected location filter result: %+v", lib.Places)
	}
}

func TestLibraryListRejectsUnknownSort(t *testing.T) {
	uc := NewLibraryUseCase(placeListFake{placeStoreFake: newPlaceStoreFake()}, &exporterFake{})
	if _, err := uc.List(context.Background(), "user-1", domain.LibraryFilter{Sort: "rating"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLibraryDeleteIsScopedToUser(t *testing.T) {
	store := newPlaceStoreFake()
	linkID := store.seed("user-1", domain.Place{ID: "p-1", Name: "A"})
	uc := NewLibraryUseCase(store, &exporterFake{})

	if err := uc.Delete(context.Background(), "user-2", linkID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user's link, got %v", err)
	}
	if err := uc.Delete(context.Background(), "user-1", linkID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.links) != 0 {
		t.Fatalf("expected link removed")
	}
}

func TestLibraryExportWritesLatestFirst(t *testing.T) {
	exporter := &exporterFake{}
	uc := NewLibraryUseCase(placeListFake{placeStoreFake: newPlaceStoreFake(), saved: libraryFixture()}, exporter)

	var buf bytes.Buffer
	if err := uc.Export(context.Background(), "user-1", &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if buf.String() != "Bakery A\nCafe A\nCafe B\n" {
		t.Fatalf("unexpected export body %q", buf.String())
	}

	exporter.err = errors.New("disk full")
	if err := uc.Export(context.Background(), "user-1", &buf); err == nil {
		t.Fatalf("expected exporter error")
	}
}
