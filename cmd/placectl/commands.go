package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/place-archive/internal/bootstrap"
	"github.com/kirillkom/place-archive/internal/config"
	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/usecase"
	"github.com/kirillkom/place-archive/internal/infrastructure/catalog"
	"github.com/kirillkom/place-archive/internal/infrastructure/imaging"
	"github.com/kirillkom/place-archive/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/place-archive/internal/observability/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "placectl",
		Short:         "Operate the place archive: schema, categories and offline extraction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg := config.Load()
			slog.SetDefault(logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "placectl", cfg.LogLevel))
		},
	}
	root.AddCommand(newCategoriesCmd(), newExtractCmd(), newMigrateCmd())
	return root
}

func newCategoriesCmd() *cobra.Command {
	categories := &cobra.Command{
		Use:   "categories",
		Short: "Inspect stored categories",
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "List default categories missing from the database and the SQL that creates them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			defer db.Close()

			uc := usecase.NewCategoryUseCase(postgres.NewCategoryRepository(db), catalog.Default())
			result, err := uc.Check(cmd.Context())
			if err != nil {
				return err
			}
			return writeCategoryCheck(cmd.OutOrStdout(), result)
		},
	}

	categories.AddCommand(check)
	return categories
}

func writeCategoryCheck(w io.Writer, check *domain.CategoryCheck) error {
	if len(check.Missing) == 0 {
		_, err := fmt.Fprintln(w, "all default categories are present")
		return err
	}

	if _, err := fmt.Fprintf(w, "missing %d categories:\n", len(check.Missing)); err != nil {
		return err
	}
	for _, c := range check.Missing {
		if _, err := fmt.Fprintf(w, "  %s %s (%s)\n", c.Icon, c.Name, c.Color); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", check.SQL)
	return err
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <image>...",
		Short: "Extract places from screenshots with the configured vision provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := readImageFiles(args)
			if err != nil {
				return err
			}

			cfg := config.Load()
			executor := bootstrap.NewExecutor(cfg, nil)
			extractor, closeVision, err := bootstrap.NewVisionExtractor(cmd.Context(), cfg, executor, catalog.Default().Names())
			if err != nil {
				return err
			}
			defer closeVision()

			uc := usecase.NewExtractPlacesUseCase(imaging.New(cfg.VisionImageMaxEdge, cfg.VisionJPEGQuality), extractor)
			progressOut := cmd.ErrOrStderr()
			result, err := uc.Extract(cmd.Context(), images, func(p domain.ExtractionProgress) {
				fmt.Fprintf(progressOut, "analyzed %d/%d screenshots, %d places so far\n", p.Completed, p.Total, len(p.Places))
			})
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			encoder.SetEscapeHTML(false)
			return encoder.Encode(result)
		},
	}
}

func readImageFiles(paths []string) ([]domain.SourceImage, error) {
	images := make([]domain.SourceImage, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		images = append(images, domain.SourceImage{Filename: filepath.Base(path), Data: data})
	}
	return images, nil
}

func newMigrateCmd() *cobra.Command {
	var seedCategories bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.EnsureSchema(cmd.Context(), db); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")

			if !seedCategories {
				return nil
			}
			created, err := postgres.NewCategoryRepository(db).SeedCategories(cmd.Context(), catalog.Default().DefaultCategories())
			if err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories\n", created)
			return nil
		},
	}

	cmd.Flags().BoolVar(&seedCategories, "seed-categories", false, "insert missing default categories after migrating")
	return cmd
}

func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}
