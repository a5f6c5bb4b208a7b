package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"meal-board/internal/autosave"
	"meal-board/internal/planner"
	"meal-board/internal/recipe"
	"meal-board/internal/shopping"
)

// Workspace is one user's board and cached recipe catalog. Every method is
// safe for concurrent use; mutations schedule a debounced save.
type Workspace struct {
	userID  string
	recipes RecipeStore
	states  StateStore
	clipper Clipper
	logger  *zap.Logger

	mu      sync.Mutex
	board   *planner.Board
	catalog *recipe.Catalog
	loaded  bool
	savedAt time.Time

	// saveMu orders saves so a later snapshot is never overwritten by an
	// earlier one.
	saveMu   sync.Mutex
	autosave *autosave.Debouncer
}

func newWorkspace(userID string, recipes RecipeStore, states StateStore, opts Options, logger *zap.Logger) *Workspace {
	w := &Workspace{
		userID:  userID,
		recipes: recipes,
		states:  states,
		clipper: opts.Clipper,
		logger:  logger.With(zap.String("user_id", userID)),
		board:   planner.NewBoard(),
		catalog: recipe.NewCatalog(nil),
	}
	w.autosave = autosave.New(opts.AutosaveDelay, w.save, w.logger)
	return w
}

// UserID returns the owner of the workspace.
func (w *Workspace) UserID() string {
	return w.userID
}

func (w *Workspace) ensureLoaded(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loaded {
		return nil
	}
	return w.loadLocked(ctx)
}

// Reload replaces the catalog and board with what the stores hold. A
// scheduled auto-save is dropped. On failure the current snapshot is kept.
func (w *Workspace) Reload(ctx context.Context) error {
	w.autosave.Cancel()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadLocked(ctx)
}

func (w *Workspace) loadLocked(ctx context.Context) error {
	recipes, err := w.recipes.ListRecipes(ctx, w.userID)
	if err != nil {
		return remoteFailure("load recipes", err)
	}
	data, err := w.states.GetState(ctx, w.userID)
	if err != nil {
		return remoteFailure("load planner state", err)
	}
	savedAt, err := w.states.UpdatedAt(ctx, w.userID)
	if err != nil {
		return remoteFailure("load planner state", err)
	}

	catalog := recipe.NewCatalog(recipes)
	board := planner.NewBoard()
	board.SelectRecipe(w.board.ActiveRecipeID())
	if data != nil {
		doc, err := planner.DecodeDocument(data)
		if err != nil {
			w.logger.Error("Stored planner state is unreadable, starting from an empty week", zap.Error(err))
		} else if repaired := board.Apply(doc); repaired > 0 {
			w.logger.Warn("Repaired stored planner state", zap.Int("repaired", repaired))
		}
	}
	board.EnsureActiveRecipe(catalog)

	w.catalog = catalog
	w.board = board
	w.savedAt = savedAt
	w.loaded = true
	w.pruneCheckedLocked()
	w.logger.Debug("Workspace loaded",
		zap.Int("recipes", catalog.Len()),
		zap.Int("planned_nights", board.PlannedNights()))
	return nil
}

// Save cancels any scheduled auto-save and writes the board now.
func (w *Workspace) Save(ctx context.Context) error {
	w.autosave.Cancel()
	return w.save(ctx)
}

func (w *Workspace) save(ctx context.Context) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	data, err := w.board.Document().Encode()
	w.mu.Unlock()
	if err != nil {
		return err
	}

	if err := w.states.PutState(ctx, w.userID, data); err != nil {
		return remoteFailure("save planner state", err)
	}

	w.mu.Lock()
	w.savedAt = time.Now().UTC()
	w.mu.Unlock()
	return nil
}

// Flush runs a scheduled auto-save now.
func (w *Workspace) Flush(ctx context.Context) error {
	return w.autosave.Flush(ctx)
}

// Close flushes and stops auto-saving.
func (w *Workspace) Close(ctx context.Context) error {
	return w.autosave.Close(ctx)
}

// SelectRecipe makes a cached recipe the active one.
func (w *Workspace) SelectRecipe(recipeID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.catalog.Has(recipeID) {
		return fmt.Errorf("select %s: %w", recipeID, recipe.ErrUnknownRecipe)
	}
	w.board.SelectRecipe(recipeID)
	w.autosave.Trigger()
	return nil
}

// AddRecipe creates a trial recipe with its ingredients, caches it and makes
// it the active recipe. The cache is unchanged when the store fails.
func (w *Workspace) AddRecipe(ctx context.Context, name string, ingredients []recipe.Ingredient) (recipe.Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return recipe.Recipe{}, fmt.Errorf("%w: recipe name is required", ErrInvalidInput)
	}
	clean := make([]recipe.Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Unit = strings.TrimSpace(ing.Unit)
		if err := ing.Validate(); err != nil {
			return recipe.Recipe{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		clean = append(clean, ing)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	rec, err := w.recipes.CreateRecipe(ctx, w.userID, name, false, clean)
	if err != nil {
		return recipe.Recipe{}, remoteFailure("create recipe", err)
	}
	rec.Ingredients = clean

	w.catalog.Add(rec)
	w.board.SelectRecipe(rec.ID)
	w.board.EnsureActiveRecipe(w.catalog)
	w.pruneCheckedLocked()
	w.autosave.Trigger()
	w.logger.Info("Recipe added", zap.String("recipe_id", rec.ID), zap.Int("ingredients", len(clean)))
	return rec, nil
}

// ImportRecipe clips a recipe from a web page and adds it as a trial recipe.
func (w *Workspace) ImportRecipe(ctx context.Context, url string) (recipe.Recipe, error) {
	if w.clipper == nil {
		return recipe.Recipe{}, ErrClipperDisabled
	}
	draft, err := w.clipper.ClipURL(ctx, url)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%w: %s: %w", ErrImportFailed, url, err)
	}
	return w.AddRecipe(ctx, draft.Name, draft.Ingredients)
}

// PromoteRecipe moves a recipe to the rotation list, in the store first.
func (w *Workspace) PromoteRecipe(ctx context.Context, recipeID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.catalog.Has(recipeID) {
		return fmt.Errorf("promote %s: %w", recipeID, recipe.ErrUnknownRecipe)
	}
	if err := w.recipes.SetRotation(ctx, recipeID, true); err != nil {
		return remoteFailure("promote recipe", err)
	}
	if err := w.catalog.Promote(recipeID); err != nil {
		return err
	}
	w.board.EnsureActiveRecipe(w.catalog)
	return nil
}

// PlaceBlock drops a block on a day.
func (w *Workspace) PlaceBlock(t planner.BlockType, day int) error {
	return w.mutate(func(b *planner.Board) error { return b.PlaceBlock(t, day) })
}

// ClearDay empties a day and its partner night.
func (w *Workspace) ClearDay(day int) error {
	return w.mutate(func(b *planner.Board) error { return b.ClearDay(day) })
}

// RemoveMeal removes a meal from every day.
func (w *Workspace) RemoveMeal(mealID string) error {
	return w.mutate(func(b *planner.Board) error {
		b.RemoveMeal(mealID)
		return nil
	})
}

// CancelPending abandons a half-placed two-night block.
func (w *Workspace) CancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.board.CancelPending()
}

func (w *Workspace) mutate(fn func(b *planner.Board) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := fn(w.board); err != nil {
		return err
	}
	if err := w.board.Validate(); err != nil {
		w.logger.Error("Board left inconsistent", zap.Error(err))
	}
	w.pruneCheckedLocked()
	w.autosave.Trigger()
	return nil
}

// pruneCheckedLocked drops checked entries whose line left the grocery list,
// so a line that comes back later starts unchecked.
func (w *Workspace) pruneCheckedLocked() {
	checked := w.board.CheckedItems()
	if len(checked) == 0 {
		return
	}
	w.board.SetCheckedItems(shopping.Prune(shopping.Build(w.board, w.catalog), checked))
}

// SetChecked crosses a grocery line off or puts it back.
func (w *Workspace) SetChecked(line string, checked bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines := shopping.Build(w.board, w.catalog)
	if !shopping.Contains(lines, line) {
		return fmt.Errorf("%w: %q", ErrUnknownLine, line)
	}
	w.board.SetCheckedItems(shopping.Toggle(lines, w.board.CheckedItems(), line, checked))
	w.autosave.Trigger()
	return nil
}

// Export returns the unchecked grocery lines as clipboard text.
func (w *Workspace) Export() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return shopping.Export(shopping.Build(w.board, w.catalog), w.board.CheckedItems())
}

// Groceries returns the grocery list with checked flags.
func (w *Workspace) Groceries() GroceryView {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines := shopping.Build(w.board, w.catalog)
	checked := w.board.CheckedItems()
	view := GroceryView{
		Lines:  make([]GroceryLineView, 0, len(lines)),
		Export: shopping.Export(lines, checked),
	}
	for _, l := range lines {
		view.Lines = append(view.Lines, GroceryLineView{
			Line:    l,
			Text:    l.String(),
			Checked: w.board.IsChecked(l.String()),
		})
	}
	return view
}

// Recipes returns the cached catalog split into rotation and trial lists.
func (w *Workspace) Recipes() RecipeLists {
	w.mu.Lock()
	defer w.mu.Unlock()
	return RecipeLists{
		Rotation:       w.catalog.Rotation(),
		Trial:          w.catalog.Trial(),
		ActiveRecipeID: w.board.ActiveRecipeID(),
	}
}

// View renders the board for a transport, with when it was last stored and
// whether an auto-save is still scheduled.
func (w *Workspace) View() BoardView {
	w.mu.Lock()
	defer w.mu.Unlock()
	view := buildBoardView(w.board, w.catalog)
	view.SavePending = w.autosave.Pending()
	if !w.savedAt.IsZero() {
		savedAt := w.savedAt
		view.SavedAt = &savedAt
	}
	return view
}
