package app

import (
	"time"

	"meal-board/internal/planner"
	"meal-board/internal/recipe"
	"meal-board/internal/shopping"
)

// BoardView is a read-only snapshot of the week.
type BoardView struct {
	Days          []DayView      `json:"days"`
	ActiveRecipe  *RecipeSummary `json:"activeRecipe"`
	Placement     PlacementView  `json:"placement"`
	PlannedNights int            `json:"plannedNights"`
	TotalNights   int            `json:"totalNights"`
	SavedAt       *time.Time     `json:"savedAt,omitempty"`
	SavePending   bool           `json:"savePending"`
}

// DayView is one day of the week with its meal resolved.
type DayView struct {
	Index        int       `json:"index"`
	Label        string    `json:"label"`
	Continuation bool      `json:"continuation"`
	Meal         *MealView `json:"meal"`
}

// MealView describes a placed meal. RecipeName is empty for recipeless
// blocks and for recipes missing from the catalog.
type MealView struct {
	ID         string            `json:"id"`
	Type       planner.BlockType `json:"type"`
	Label      string            `json:"label"`
	RecipeID   string            `json:"recipeId,omitempty"`
	RecipeName string            `json:"recipeName,omitempty"`
}

// RecipeSummary names a recipe.
type RecipeSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlacementView exposes the two-night placement gesture.
type PlacementView struct {
	Phase  string `json:"phase"`
	MealID string `json:"mealId,omitempty"`
}

// RecipeLists is the catalog split the way the board shows it.
type RecipeLists struct {
	Rotation       []recipe.Recipe `json:"rotation"`
	Trial          []recipe.Recipe `json:"trial"`
	ActiveRecipeID string          `json:"activeRecipeId,omitempty"`
}

// Ordered returns rotation recipes followed by trial recipes. Transports that
// number recipes use this order.
func (l RecipeLists) Ordered() []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(l.Rotation)+len(l.Trial))
	out = append(out, l.Rotation...)
	return append(out, l.Trial...)
}

// GroceryView is the derived grocery list.
type GroceryView struct {
	Lines  []GroceryLineView `json:"lines"`
	Export string            `json:"export"`
}

// GroceryLineView is a grocery line with its checked state.
type GroceryLineView struct {
	shopping.Line
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

func buildBoardView(b *planner.Board, c *recipe.Catalog) BoardView {
	view := BoardView{
		Days:          make([]DayView, 0, planner.DaysInWeek),
		PlannedNights: b.PlannedNights(),
		TotalNights:   planner.DaysInWeek,
	}

	for i, d := range b.Days() {
		dv := DayView{Index: i, Label: d.Label, Continuation: d.Continuation}
		if m, ok := b.Meal(d.MealID); ok {
			mv := &MealView{ID: m.ID, Type: m.Type, Label: m.Type.Label(), RecipeID: m.RecipeID}
			if rec, ok := c.Get(m.RecipeID); ok {
				mv.RecipeName = rec.Name
			}
			dv.Meal = mv
		}
		view.Days = append(view.Days, dv)
	}

	if rec, ok := c.Get(b.ActiveRecipeID()); ok {
		view.ActiveRecipe = &RecipeSummary{ID: rec.ID, Name: rec.Name}
	}

	p := b.Placement()
	view.Placement = PlacementView{Phase: p.Phase.String(), MealID: p.MealID}
	return view
}
