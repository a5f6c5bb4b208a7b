package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"meal-board/internal/app"
	"meal-board/internal/auth"
	"meal-board/internal/clipper"
	"meal-board/internal/config"
	"meal-board/internal/llm"
	"meal-board/internal/metrics"
	"meal-board/internal/planner"
	"meal-board/internal/recipe"
	"meal-board/internal/storage"
)

var (
	password   string
	ownerEmail string
	keepDays   int
)

var createUserCmd = &cobra.Command{
	Use:   "create-user <email>",
	Short: "Register a board owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := auth.NewService(auth.NewRepository(db.SQL), cfg.SessionSecret, cfg.SessionTTL)
		u, err := svc.CreateUser(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", u.Email, u.ID)
		return nil
	},
}

var seedRecipesCmd = &cobra.Command{
	Use:   "seed-recipes <file.yaml>",
	Short: "Load recipes from a YAML file",
	Long: `Loads recipes from a YAML file into a user's catalog:

  recipes:
    - name: Chili
      rotation: true
      ingredients:
        - {name: beans, quantity: 2, unit: cans}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUser(cmd, ownerEmail)
		if err != nil {
			return err
		}
		f, err := recipe.LoadSeedFile(args[0])
		if err != nil {
			return err
		}
		repo := recipe.NewRepository(db.SQL)
		n, err := repo.Seed(cmd.Context(), u.ID, f)
		if err != nil {
			return fmt.Errorf("seeded %d of %d recipes: %w", n, len(f.Recipes), err)
		}
		total, err := repo.Count(cmd.Context(), u.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully seeded %d recipes for %s (%d in catalog).\n", n, u.Email, total)
		return nil
	},
}

var importRecipeCmd = &cobra.Command{
	Use:   "import-recipe <url>",
	Short: "Clip a recipe from a web page into a user's trial list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !clipper.IsURL(args[0]) {
			return fmt.Errorf("%q is not an http(s) URL", args[0])
		}
		u, err := lookupUser(cmd, ownerEmail)
		if err != nil {
			return err
		}

		textGen, err := llm.NewTextGenerator(ctx, cfg)
		if err != nil {
			return err
		}
		if textGen == nil {
			return app.ErrClipperDisabled
		}
		if c, ok := textGen.(llm.Closer); ok {
			defer c.Close()
		}

		states, err := stateStore()
		if err != nil {
			return err
		}
		a := app.NewApp(recipe.NewRepository(db.SQL), states, nil, app.Options{
			AutosaveDelay: cfg.AutosaveDelay,
			Clipper:       clipper.NewClipper(textGen, metrics.NewStore(db.SQL), logger),
		}, logger)

		ws, err := a.ForUser(ctx, u.ID)
		if err != nil {
			return err
		}
		rec, importErr := ws.ImportRecipe(ctx, args[0])
		// Close flushes the active recipe change.
		if err := a.Close(ctx); err != nil {
			logger.Warn("Failed to save board", zap.Error(err))
		}
		if importErr != nil {
			return importErr
		}

		fmt.Printf("Imported %q with %d ingredients:\n", rec.Name, len(rec.Ingredients))
		for _, ing := range rec.Ingredients {
			fmt.Printf("  - %s %g %s\n", ing.Name, ing.Quantity, ing.Unit)
		}
		return nil
	},
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Remove old metric records and expired sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if keepDays < 1 {
			return errors.New("--days must be at least 1")
		}

		affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, keepDays)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

		svc := auth.NewService(auth.NewRepository(db.SQL), cfg.SessionSecret, cfg.SessionTTL)
		expired, err := svc.CleanupExpired(ctx)
		if err != nil {
			return fmt.Errorf("session cleanup failed: %w", err)
		}
		fmt.Printf("Successfully removed %d expired sessions.\n", expired)
		return nil
	},
}

func lookupUser(cmd *cobra.Command, email string) (*auth.User, error) {
	u, _, err := auth.NewRepository(db.SQL).GetUserByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("no user with email %q", email)
	}
	return u, nil
}

func stateStore() (app.StateStore, error) {
	if cfg.StateBackend == config.StateBackendFile {
		s, err := storage.NewStateStore(cfg.StateDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return planner.NewStateRepository(db.SQL), nil
}
