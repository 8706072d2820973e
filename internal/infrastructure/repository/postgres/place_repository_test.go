package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

var savedPlaceColumns = []string{
	"up.id", "p.id", "p.name", "p.address", "p.latitude", "p.longitude",
	"c.id", "c.name", "c.icon", "c.color", "c.created_at",
	"location", "up.is_visited", "up.created_at",
}

func TestListSavedPlacesScansNullableColumns(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewPlaceRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT up.id, p.id, p.name").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(savedPlaceColumns).
			AddRow("up-1", "p-1", "Bakery A", "Seoul", 37.5, 127.0, "c-1", "베이커리", "🥐", "#F39C12", now, "성수", true, now).
			AddRow("up-2", "p-2", "Cafe", nil, nil, nil, "c-2", "카페", "☕", "#8B4513", now, nil, false, now))

	got, err := repo.ListSavedPlaces(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListSavedPlaces() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 places, got %d", len(got))
	}
	if got[0].Address == nil || *got[0].Address != "Seoul" || !got[0].HasCoordinates() || got[0].Location != "성수" || !got[0].Visited {
		t.Fatalf("unexpected first place: %+v", got[0])
	}
	if got[1].Address != nil || got[1].HasCoordinates() || got[1].Location != "" {
		t.Fatalf("expected null columns to stay empty: %+v", got[1])
	}
	if got[1].Category.Name != "카페" {
		t.Fatalf("unexpected category: %+v", got[1].Category)
	}
	expectationsMet(t, mock)
}

func TestListSavedPlacesFallsBackWithoutLocationColumn(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewPlaceRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("up.location").
		WithArgs("user-1").
		WillReturnError(&pgconn.PgError{Code: "42703", Message: `column up.location does not exist`})
	mock.ExpectQuery(`NULL::text`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(savedPlaceColumns).
			AddRow("up-1", "p-1", "Cafe", nil, nil, nil, "c-1", "카페", "☕", "#8B4513", now, nil, false, now))

	got, err := repo.ListSavedPlaces(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListSavedPlaces() error = %v", err)
	}
	if len(got) != 1 || got[0].Location != "" {
		t.Fatalf("unexpected result: %+v", got)
	}
	expectationsMet(t, mock)
}

func TestDeleteUserPlaceReturnsDomainNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewPlaceRepository(db)

	mock.ExpectExec("DELETE FROM user_places").
		WithArgs("user-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteUserPlace(context.Background(), "user-1", "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestInTxCreatesPlaceAndReusesExistingLink(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewPlaceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs("Bakery A").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM places").
		WithArgs("Bakery A").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO places").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO user_places").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT id FROM user_places").
		WithArgs("user-1", "p-new").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("up-existing"))
	mock.ExpectCommit()

	var linkID string
	err := repo.InTx(context.Background(), func(tx ports.PlaceTx) error {
		if err := tx.LockPlaceName(context.Background(), "Bakery A"); err != nil {
			return err
		}
		existing, err := tx.FindPlaceByName(context.Background(), "Bakery A")
		if err != nil {
			return err
		}
		if existing != nil {
			t.Fatalf("expected no existing place, got %+v", existing)
		}
		place := &domain.Place{ID: "p-new", Name: "Bakery A", CategoryID: "c-1", CreatedAt: time.Now().UTC()}
		if err := tx.CreatePlace(context.Background(), place); err != nil {
			return err
		}
		linkID, err = tx.LinkUserPlace(context.Background(), &domain.UserPlace{
			ID: "up-new", UserID: "user-1", PlaceID: "p-new", CreatedAt: time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}
	if linkID != "up-existing" {
		t.Fatalf("expected existing link id, got %q", linkID)
	}
	expectationsMet(t, mock)
}

func TestInTxRollsBackOnError(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewPlaceRepository(db)

	errBoom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(ports.PlaceTx) error { return errBoom })
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestBackfillPlaceOnlyFillsMissingColumns(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewPlaceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`COALESCE\(address, NULLIF\(\$2, ''\)\)`).
		WithArgs("p-1", "Seoul", 37.5, 127.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx ports.PlaceTx) error {
		return tx.BackfillPlace(context.Background(), "p-1", domain.PlaceCandidate{Address: "Seoul", Latitude: 37.5, Longitude: 127.0})
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}
	expectationsMet(t, mock)
}
