package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"meal-board/internal/auth"
	"meal-board/internal/clipper"
	"meal-board/internal/recipe"
)

var (
	// ErrAuthRequired means the caller is signed out or the session is unknown.
	ErrAuthRequired = errors.New("sign in required")
	// ErrRemoteFailure wraps any failure of the recipe or state store.
	ErrRemoteFailure = errors.New("remote store failure")
	// ErrInvalidInput marks a request the caller has to fix.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownLine is returned when toggling a line not on the grocery list.
	ErrUnknownLine = errors.New("unknown grocery line")
	// ErrClipperDisabled is returned by ImportRecipe when no LLM is configured.
	ErrClipperDisabled = errors.New("recipe import is not configured")
	// ErrImportFailed wraps a page that could not be fetched or understood.
	ErrImportFailed = errors.New("recipe import failed")
)

// RecipeStore persists a user's recipe catalog.
type RecipeStore interface {
	ListRecipes(ctx context.Context, userID string) ([]recipe.Recipe, error)
	// CreateRecipe stores a recipe with all of its ingredients, or nothing.
	CreateRecipe(ctx context.Context, userID, name string, isRotation bool, ingredients []recipe.Ingredient) (recipe.Recipe, error)
	SetRotation(ctx context.Context, recipeID string, rotation bool) error
}

// StateStore holds at most one board document per user.
type StateStore interface {
	GetState(ctx context.Context, userID string) ([]byte, error)
	PutState(ctx context.Context, userID string, data []byte) error
	// UpdatedAt is the zero time when no document is stored.
	UpdatedAt(ctx context.Context, userID string) (time.Time, error)
}

// Sessions resolves session tokens to users.
type Sessions interface {
	CurrentUser(ctx context.Context, token string) (*auth.User, error)
}

// Clipper extracts a recipe draft from a web page.
type Clipper interface {
	ClipURL(ctx context.Context, url string) (*clipper.Draft, error)
}

// Options tune an App. Zero values use defaults.
type Options struct {
	AutosaveDelay time.Duration
	// Clipper enables ImportRecipe when non-nil.
	Clipper Clipper
}

// App owns one Workspace per signed-in user and hands them to transports.
type App struct {
	recipes  RecipeStore
	states   StateStore
	sessions Sessions
	opts     Options
	logger   *zap.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
	closed     bool
}

// NewApp creates and initializes a new App instance.
func NewApp(recipes RecipeStore, states StateStore, sessions Sessions, opts Options, logger *zap.Logger) *App {
	return &App{
		recipes:    recipes,
		states:     states,
		sessions:   sessions,
		opts:       opts,
		logger:     logger,
		workspaces: make(map[string]*Workspace),
	}
}

// ForToken resolves a session token and returns the user's workspace.
func (a *App) ForToken(ctx context.Context, token string) (*Workspace, *auth.User, error) {
	if token == "" {
		return nil, nil, ErrAuthRequired
	}
	u, err := a.sessions.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			return nil, nil, ErrAuthRequired
		}
		return nil, nil, remoteFailure("resolve session", err)
	}
	ws, err := a.ForUser(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return ws, u, nil
}

// ForUser returns the user's workspace, loading it from the stores on first
// use. A workspace whose first load failed is retried on the next call.
func (a *App) ForUser(ctx context.Context, userID string) (*Workspace, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, fmt.Errorf("app is shutting down")
	}
	ws, ok := a.workspaces[userID]
	if !ok {
		ws = newWorkspace(userID, a.recipes, a.states, a.opts, a.logger)
		a.workspaces[userID] = ws
	}
	a.mu.Unlock()

	if err := ws.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

// Flush runs a user's scheduled save now. The workspace stays cached because
// the user's other sessions keep sharing it. It is called on sign-out.
func (a *App) Flush(ctx context.Context, userID string) error {
	a.mu.Lock()
	ws, ok := a.workspaces[userID]
	a.mu.Unlock()

	if !ok {
		return nil
	}
	return ws.Flush(ctx)
}

// Close flushes every workspace and refuses new ones.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	workspaces := a.workspaces
	a.workspaces = make(map[string]*Workspace)
	a.mu.Unlock()

	var errs []error
	for userID, ws := range workspaces {
		if err := ws.Close(ctx); err != nil {
			a.logger.Error("Failed to flush workspace on shutdown", zap.String("user_id", userID), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func remoteFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteFailure, err)
}
