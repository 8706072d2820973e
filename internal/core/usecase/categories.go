package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

type CategoryUseCase struct {
	store   ports.CategoryStore
	catalog ports.CategoryCatalog
}

func NewCategoryUseCase(store ports.CategoryStore, catalog ports.CategoryCatalog) *CategoryUseCase {
	return &CategoryUseCase{store: store, catalog: catalog}
}

func (uc *CategoryUseCase) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.store.ListCategories(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "list categories", err)
	}
	return categories, nil
}

// Check compares stored categories with the default catalog. It never writes;
// missing rows are reported together with the SQL an operator can run.
func (uc *CategoryUseCase) Check(ctx context.Context) (*domain.CategoryCheck, error) {
	stored, err := uc.List(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(stored))
	for _, c := range stored {
		present[c.Name] = struct{}{}
	}

	missing := make([]domain.Category, 0)
	for _, c := range uc.catalog.DefaultCategories() {
		if _, ok := present[c.Name]; !ok {
			missing = append(missing, c)
		}
	}

	check := &domain.CategoryCheck{Missing: missing}
	if len(missing) > 0 {
		check.SQL = CategoryInsertSQL(missing)
		slog.Warn("categories_missing", "count", len(missing), "sql", check.SQL)
	}
	return check, nil
}

// CategoryInsertSQL renders an idempotent insert for the given categories.
func CategoryInsertSQL(categories []domain.Category) string {
	var b strings.Builder
	b.WriteString("INSERT INTO categories (name, icon, color) VALUES\n")
	for i, c := range categories {
		fmt.Fprintf(&b, "  (%s, %s, %s)", sqlQuote(c.Name), sqlQuote(c.Icon), sqlQuote(c.Color))
		if i < len(categories)-1 {
			b.WriteString(",\n")
		}
	}
	b.WriteString("\nON CONFLICT (name) DO NOTHING;")
	return b.String()
}

func sqlQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
