package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"meal-board/internal/app"
	"meal-board/internal/auth"
	"meal-board/internal/clipper"
	"meal-board/internal/config"
	"meal-board/internal/database"
	"meal-board/internal/llm"
	"meal-board/internal/logging"
	"meal-board/internal/metrics"
	"meal-board/internal/planner"
	"meal-board/internal/recipe"
	"meal-board/internal/server"
	"meal-board/internal/storage"
	"meal-board/internal/telegram"
)

const sessionCleanupInterval = time.Hour

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatalf("Invalid server config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize the database and stores
	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	dataDir := filepath.Dir(cfg.DatabasePath)

	recipeRepo := recipe.NewRepository(db.SQL)
	authRepo := auth.NewRepository(db.SQL)
	authSvc := auth.NewService(authRepo, cfg.SessionSecret, cfg.SessionTTL)
	metricsStore := metrics.NewStore(db.SQL)

	states, err := newStateStore(cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize state store", zap.Error(err))
	}

	// 3. Optional recipe clipper
	opts := app.Options{AutosaveDelay: cfg.AutosaveDelay}
	textGen, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	if textGen != nil {
		if c, ok := textGen.(llm.Closer); ok {
			defer c.Close()
		}
		opts.Clipper = clipper.NewClipper(textGen, metricsStore, logger)
		logger.Info("Recipe import enabled", zap.String("provider", cfg.LLMProvider))
	} else {
		logger.Info("Recipe import disabled: no LLM API key")
	}

	application := app.NewApp(recipeRepo, states, authSvc, opts, logger)
	srv := server.New(application, authSvc, dataDir, logger)

	// 4. Optional Telegram transport
	var bot *telegram.Bot
	if cfg.TelegramEnabled() {
		owner, err := authRepo.GetUser(ctx, cfg.TelegramBoardUserID)
		if err != nil {
			logger.Fatal("Failed to look up board owner", zap.Error(err))
		}
		if owner == nil {
			logger.Fatal("TELEGRAM_BOARD_USER_ID does not name a user", zap.String("user_id", cfg.TelegramBoardUserID))
		}
		bot, err = telegram.NewBot(cfg, application, metricsStore, dataDir, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram Bot", zap.Error(err))
		}
		srv.Handle("POST /webhook", bot)
	}

	go cleanupSessions(ctx, authSvc, logger)

	// 5. Start Server with Graceful Shutdown
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Meal board listening", zap.String("port", cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if bot != nil {
		bot.Close()
	}
	if err := application.Close(ctxShutdown); err != nil {
		logger.Error("Unsaved changes were lost on shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func newStateStore(cfg *config.Config, db *database.DB) (app.StateStore, error) {
	if cfg.StateBackend == config.StateBackendFile {
		s, err := storage.NewStateStore(cfg.StateDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return planner.NewStateRepository(db.SQL), nil
}

func cleanupSessions(ctx context.Context, svc *auth.Service, logger *zap.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("Failed to clean up sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("Expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}
