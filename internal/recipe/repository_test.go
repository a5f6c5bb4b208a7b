package recipe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-board/internal/database"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "recipes.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db.SQL)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return repo
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	chili, err := repo.CreateRecipe(ctx, "user-1", "Chili", false, []Ingredient{
		{Name: "beans", Quantity: 2, Unit: "cans"},
		{Name: " beef ", Quantity: 500, Unit: "g"},
	})
	require.NoError(t, err)
	require.Len(t, chili.Ingredients, 2)
	require.Equal(t, "beef", chili.Ingredients[1].Name)

	pasta, err := repo.CreateRecipe(ctx, "user-1", "Pasta", true, nil)
	require.NoError(t, err)

	_, err = repo.CreateRecipe(ctx, "user-2", "Someone else's soup", false, nil)
	require.NoError(t, err)

	t.Run("ListRecipes", func(t *testing.T) {
		recipes, err := repo.ListRecipes(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, recipes, 2)
		require.Equal(t, chili.ID, recipes[0].ID)
		require.Equal(t, pasta.ID, recipes[1].ID)
		require.True(t, recipes[1].IsRotation)
		require.Equal(t, []Ingredient{
			{Name: "beans", Quantity: 2, Unit: "cans"},
			{Name: "beef", Quantity: 500, Unit: "g"},
		}, recipes[0].Ingredients)
		require.Empty(t, recipes[1].Ingredients)
	})

	t.Run("ListRecipesEmpty", func(t *testing.T) {
		recipes, err := repo.ListRecipes(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, recipes)
	})

	t.Run("SetRotation", func(t *testing.T) {
		require.NoError(t, repo.SetRotation(ctx, chili.ID, true))
		recipes, err := repo.ListRecipes(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, recipes[0].IsRotation)
	})

	t.Run("SetRotationUnknown", func(t *testing.T) {
		err := repo.SetRotation(ctx, "missing", true)
		require.True(t, errors.Is(err, ErrUnknownRecipe))
	})

	t.Run("CreateRecipeRequiresName", func(t *testing.T) {
		_, err := repo.CreateRecipe(ctx, "user-1", "   ", false, nil)
		require.Error(t, err)
	})

	t.Run("InvalidIngredientRollsBack", func(t *testing.T) {
		_, err := repo.CreateRecipe(ctx, "user-3", "Broken", false, []Ingredient{
			{Name: "flour", Quantity: 200, Unit: "g"},
			{Name: "salt"},
		})
		require.Error(t, err)

		recipes, err := repo.ListRecipes(ctx, "user-3")
		require.NoError(t, err)
		require.Empty(t, recipes)

		var orphans int
		require.NoError(t, repo.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM recipe_ingredients WHERE name = 'flour'`).Scan(&orphans))
		require.Zero(t, orphans)
	})
}

func TestRepositorySeed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	f, err := ParseSeed([]byte(`
recipes:
  - name: Chili
    ingredients:
      - {name: beans, quantity: 2, unit: cans}
  - name: Curry
    rotation: true
`))
	require.NoError(t, err)

	n, err := repo.Seed(ctx, "user-1", f)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	count, err := repo.Count(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
