package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

type PlaceRepository struct {
	db *sql.DB
}

func NewPlaceRepository(db *sql.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

const savedPlacesQuery = `
SELECT up.id, p.id, p.name, p.address, p.latitude, p.longitude,
	c.id, c.name, c.icon, c.color, c.created_at,
	%s, up.is_visited, up.created_at
FROM user_places up
JOIN places p ON p.id = up.place_id
JOIN categories c ON c.id = p.category_id
WHERE up.user_id = $1
ORDER BY up.created_at DESC
`

func (r *PlaceRepository) ListSavedPlaces(ctx context.Context, userID string) ([]domain.SavedPlace, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(savedPlacesQuery, "up.location"), userID)
	if err != nil && isUndefinedColumn(err) {
		slog.Warn("user_places_location_missing", "user_id", userID)
		rows, err = r.db.QueryContext(ctx, fmt.Sprintf(savedPlacesQuery, "NULL::text"), userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list saved places: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SavedPlace, 0)
	for rows.Next() {
		var (
			sp       domain.SavedPlace
			address  sql.NullString
			lat, lng sql.NullFloat64
			location sql.NullString
		)
		err := rows.Scan(
			&sp.UserPlaceID, &sp.PlaceID, &sp.Name, &address, &lat, &lng,
			&sp.Category.ID, &sp.Category.Name, &sp.Category.Icon, &sp.Category.Color, &sp.Category.CreatedAt,
			&location, &sp.Visited, &sp.SavedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan saved place: %w", err)
		}
		sp.Address = nullString(address)
		sp.Latitude = nullFloat(lat)
		sp.Longitude = nullFloat(lng)
		sp.Location = location.String
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved places: %w", err)
	}
	return out, nil
}

func (r *PlaceRepository) DeleteUserPlace(ctx context.Context, userID, userPlaceID string) error {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM user_places
WHERE user_id = $1 AND id = $2
`, userID, userPlaceID)
	if err != nil {
		return fmt.Errorf("delete user place: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user place rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete user place", fmt.Errorf("user place not found: id=%s", userPlaceID))
	}
	return nil
}

func (r *PlaceRepository) UpdateUserPlaceLocation(ctx context.Context, userPlaceID, location string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE user_places
SET location = $2
WHERE id = $1
`, userPlaceID, location)
	if err != nil {
		return fmt.Errorf("update user place location: %w", err)
	}
	return nil
}

// InTx runs fn in one transaction, committing only when fn succeeds.
func (r *PlaceRepository) InTx(ctx context.Context, fn func(tx ports.PlaceTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin place tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&placeTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit place tx: %w", err)
	}
	return nil
}

type placeTx struct {
	tx *sql.Tx
}

// LockPlaceName holds a transaction-scoped advisory lock keyed by the name so
// concurrent saves of one place serialize on find-or-create.
func (t *placeTx) LockPlaceName(ctx context.Context, name string) error {
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
		return fmt.Errorf("lock place name: %w", err)
	}
	return nil
}

func (t *placeTx) FindPlaceByName(ctx context.Context, name string) (*domain.Place, error) {
	row := t.tx.QueryRowContext(ctx, `
SELECT id, name, category_id, address, latitude, longitude, created_at
FROM places
WHERE name = $1
ORDER BY created_at ASC
LIMIT 1
`, name)

	var (
		place    domain.Place
		address  sql.NullString
		lat, lng sql.NullFloat64
	)
	err := row.Scan(&place.ID, &place.Name, &place.CategoryID, &address, &lat, &lng, &place.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find place by name: %w", err)
	}
	place.Address = nullString(address)
	place.Latitude = nullFloat(lat)
	place.Longitude = nullFloat(lng)
	return &place, nil
}

func (t *placeTx) CreatePlace(ctx context.Context, place *domain.Place) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO places (id, name, category_id, address, latitude, longitude, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
`, place.ID, place.Name, place.CategoryID, place.Address, place.Latitude, place.Longitude, place.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

func (t *placeTx) BackfillPlace(ctx context.Context, placeID string, candidate domain.PlaceCandidate) error {
	_, err := t.tx.ExecContext(ctx, `
UPDATE places
SET address = COALESCE(address, NULLIF($2, '')),
	latitude = CASE WHEN latitude IS NULL OR longitude IS NULL THEN $3 ELSE latitude END,
	longitude = CASE WHEN latitude IS NULL OR longitude IS NULL THEN $4 ELSE longitude END,
	updated_at = $5
WHERE id = $1
`, placeID, candidate.Address, candidate.Latitude, candidate.Longitude, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("backfill place: %w", err)
	}
	return nil
}

func (t *placeTx) LinkUserPlace(ctx context.Context, link *domain.UserPlace) (string, error) {
	var id string
	err := t.tx.QueryRowContext(ctx, `
INSERT INTO user_places (id, user_id, place_id, is_visited, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, place_id) DO NOTHING
RETURNING id
`, link.ID, link.UserID, link.PlaceID, link.Visited, link.CreatedAt).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("insert user place: %w", err)
	}

	err = t.tx.QueryRowContext(ctx, `
SELECT id FROM user_places
WHERE user_id = $1 AND place_id = $2
`, link.UserID, link.PlaceID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("find existing user place: %w", err)
	}
	return id, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
