package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, icon, color, created_at
FROM categories
ORDER BY created_at ASC, name ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Category, 0)
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Icon, &cat.Color, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *CategoryRepository) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, icon, color, created_at
FROM categories
WHERE name = $1
`, name)

	var cat domain.Category
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Icon, &cat.Color, &cat.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "find category", fmt.Errorf("category %q: %w", name, err))
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &cat, nil
}

// SeedCategories inserts the given categories, leaving existing names untouched.
// It returns how many rows were created.
func (r *CategoryRepository) SeedCategories(ctx context.Context, categories []domain.Category) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted := 0
	for _, cat := range categories {
		result, err := tx.ExecContext(ctx, `
INSERT INTO categories (name, icon, color)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO NOTHING
`, cat.Name, cat.Icon, cat.Color)
		if err != nil {
			return 0, fmt.Errorf("seed category %q: %w", cat.Name, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("seed category rows affected: %w", err)
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed tx: %w", err)
	}
	return inserted, nil
}
