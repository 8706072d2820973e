package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/place-archive/internal/config"
	"github.com/kirillkom/place-archive/internal/core/usecase"
	"github.com/kirillkom/place-archive/internal/infrastructure/catalog"
	"github.com/kirillkom/place-archive/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/place-archive/internal/infrastructure/imaging"
	"github.com/kirillkom/place-archive/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/place-archive/internal/infrastructure/session"
	"github.com/kirillkom/place-archive/internal/observability/metrics"
)

const categoryCheckTimeout = 5 * time.Second

type App struct {
	Config config.Config

	DB      *sql.DB
	Catalog *catalog.Catalog
	Metrics *metrics.HTTPServerMetrics

	Auth       *usecase.AuthUseCase
	Sessions   *session.Tokens
	Categories *usecase.CategoryUseCase
	Extractor  *usecase.ExtractPlacesUseCase
	Resolver   *usecase.PlaceResolver
	Saver      *usecase.SavePlaceUseCase
	Library    *usecase.LibraryUseCase
	Feedback   *usecase.FeedbackUseCase

	closeFn func()
}

// New wires the storage, providers and use cases shared by the API and the MCP server.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	httpMetrics := metrics.NewHTTPServerMetrics("api")
	executor := NewExecutor(cfg, httpMetrics.BreakerStateChanged)
	defaults := catalog.Default()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	closers := []func(){func() { _ = db.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DBAutoMigrate {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			closeAll()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	// Sessions stay nil without a secret; only the API needs them.
	var tokens *session.Tokens
	if cfg.SessionSecret != "" {
		tokens, err = session.NewTokens(cfg.SessionSecret)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init session tokens: %w", err)
		}
	}

	extractor, closeVision, err := NewVisionExtractor(ctx, cfg, executor, defaults.Names())
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, closeVision)

	searcher, closeSearch, err := newPlaceSearcher(ctx, cfg, executor, httpMetrics)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, closeSearch)

	notifier, closeNotifier, err := newFeedbackNotifier(cfg, executor, httpMetrics)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, closeNotifier)

	users := postgres.NewUserRepository(db)
	categories := postgres.NewCategoryRepository(db)
	places := postgres.NewPlaceRepository(db)
	feedback := postgres.NewFeedbackRepository(db)

	resolver := usecase.NewPlaceResolver(searcher)
	categoryUC := usecase.NewCategoryUseCase(categories, defaults)

	app := &App{
		Config:  cfg,
		DB:      db,
		Catalog: defaults,
		Metrics: httpMetrics,

		Auth:       usecase.NewAuthUseCase(users),
		Sessions:   tokens,
		Categories: categoryUC,
		Extractor:  usecase.NewExtractPlacesUseCase(imaging.New(cfg.VisionImageMaxEdge, cfg.VisionJPEGQuality), extractor),
		Resolver:   resolver,
		Saver:      usecase.NewSavePlaceUseCase(categories, places, resolver, usecase.NewDuplicateDetector(places)),
		Library:    usecase.NewLibraryUseCase(places, xlsx.New(time.Local)),
		Feedback:   usecase.NewFeedbackUseCase(feedback, notifier),

		closeFn: closeAll,
	}

	app.warnMissingCategories(ctx)
	return app, nil
}

// warnMissingCategories logs catalog categories absent from storage. Startup continues either way.
func (a *App) warnMissingCategories(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, categoryCheckTimeout)
	defer cancel()

	check, err := a.Categories.Check(checkCtx)
	if err != nil {
		slog.Warn("category_check_failed", "error", err)
		return
	}
	if len(check.Missing) == 0 {
		return
	}

	names := make([]string, 0, len(check.Missing))
	for _, c := range check.Missing {
		names = append(names, c.Name)
	}
	slog.Warn("categories_missing", "missing", names, "sql", check.SQL)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
