package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"meal-board/internal/config"
	"meal-board/internal/database"
	"meal-board/internal/logging"
)

var (
	// Global flags
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "meal-board-admin",
	Short: "Maintenance commands for the meal board",
	Long: `meal-board-admin manages the meal board database directly.

It reads the same environment as the server (DATABASE_PATH, STATE_BACKEND,
LLM_PROVIDER, ...) and must run on the host that owns the database file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level)
		if err != nil {
			return err
		}

		db, err = database.NewDB(cfg.DatabasePath, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			_ = db.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	createUserCmd.Flags().StringVar(&password, "password", "", "Password for the new user (required)")
	_ = createUserCmd.MarkFlagRequired("password")

	seedRecipesCmd.Flags().StringVar(&ownerEmail, "email", "", "Email of the user receiving the recipes (required)")
	_ = seedRecipesCmd.MarkFlagRequired("email")

	importRecipeCmd.Flags().StringVar(&ownerEmail, "email", "", "Email of the user receiving the recipe (required)")
	_ = importRecipeCmd.MarkFlagRequired("email")

	metricsCleanupCmd.Flags().IntVar(&keepDays, "days", 30, "Keep records for the last N days")

	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(seedRecipesCmd)
	rootCmd.AddCommand(importRecipeCmd)
	rootCmd.AddCommand(metricsCleanupCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
