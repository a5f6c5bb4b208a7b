package recipe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"meal-board/internal/database"
	db "meal-board/internal/recipe/db"
)

// Repository is a database-backed repository for recipes and their ingredients.
type Repository struct {
	queries *db.Queries
	db      *sql.DB
	now     func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: db.New(d),
		db:      d,
		now:     time.Now,
	}
}

// ListRecipes returns every recipe owned by userID, oldest first, with nested ingredients.
func (r *Repository) ListRecipes(ctx context.Context, userID string) ([]Recipe, error) {
	rows, err := r.queries.ListRecipesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes for user %s: %w", userID, err)
	}

	recipes := make([]Recipe, 0, len(rows))
	byID := make(map[string]int, len(rows))
	for _, row := range rows {
		byID[row.ID] = len(recipes)
		recipes = append(recipes, Recipe{
			ID:         row.ID,
			Name:       row.Name,
			IsRotation: row.IsRotation != 0,
			CreatedAt:  database.FromMillis(row.CreatedAt),
		})
	}
	if len(recipes) == 0 {
		return recipes, nil
	}

	ingRows, err := r.queries.ListIngredientsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients for user %s: %w", userID, err)
	}
	for _, row := range ingRows {
		if i, ok := byID[row.RecipeID]; ok {
			recipes[i].Ingredients = append(recipes[i].Ingredients, Ingredient{
				Name:     row.Name,
				Quantity: row.Quantity,
				Unit:     row.Unit,
			})
		}
	}
	return recipes, nil
}

// CreateRecipe inserts a recipe and its ingredients in one transaction and
// returns it. Nothing is stored when any ingredient is rejected.
func (r *Repository) CreateRecipe(ctx context.Context, userID, name string, isRotation bool, ingredients []Ingredient) (Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Recipe{}, fmt.Errorf("recipe name is required")
	}

	rec := Recipe{
		ID:         uuid.NewString(),
		Name:       name,
		IsRotation: isRotation,
		CreatedAt:  r.now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	err = q.InsertRecipe(ctx, db.InsertRecipeParams{
		ID:         rec.ID,
		UserID:     userID,
		Name:       rec.Name,
		IsRotation: boolToInt(isRotation),
		CreatedAt:  database.ToMillis(rec.CreatedAt),
	})
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to insert recipe: %w", err)
	}

	for _, ing := range ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Unit = strings.TrimSpace(ing.Unit)
		if err := ing.Validate(); err != nil {
			return Recipe{}, fmt.Errorf("recipe %q: %w", rec.Name, err)
		}
		err := q.InsertIngredient(ctx, db.InsertIngredientParams{
			RecipeID: rec.ID,
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
		if err != nil {
			return Recipe{}, fmt.Errorf("failed to insert ingredient for recipe %s: %w", rec.ID, err)
		}
		rec.Ingredients = append(rec.Ingredients, ing)
	}

	if err := tx.Commit(); err != nil {
		return Recipe{}, fmt.Errorf("failed to commit recipe %s: %w", rec.ID, err)
	}
	return rec, nil
}

// SetRotation updates the rotation flag of a recipe.
func (r *Repository) SetRotation(ctx context.Context, recipeID string, rotation bool) error {
	n, err := r.queries.SetRecipeRotation(ctx, db.SetRecipeRotationParams{
		IsRotation: boolToInt(rotation),
		ID:         recipeID,
	})
	if err != nil {
		return fmt.Errorf("failed to update rotation for recipe %s: %w", recipeID, err)
	}
	if n == 0 {
		return fmt.Errorf("set rotation %s: %w", recipeID, ErrUnknownRecipe)
	}
	return nil
}

// Count returns the number of recipes a user owns.
func (r *Repository) Count(ctx context.Context, userID string) (int, error) {
	count, err := r.queries.CountRecipesByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return int(count), nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
