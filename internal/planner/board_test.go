package planner

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"meal-board/internal/recipe"
)

const (
	sun = iota
	mon
	tue
	wed
	thu
	fri
	sat
)

func newTestBoard(t *testing.T, activeRecipe string) *Board {
	t.Helper()
	b := NewBoard()
	n := 0
	b.newID = func() string {
		n++
		return fmt.Sprintf("meal_%d", n)
	}
	b.SelectRecipe(activeRecipe)
	return b
}

func mustValid(t *testing.T, b *Board) {
	t.Helper()
	if err := b.Validate(); err != nil {
		t.Fatalf("Board invalid: %v", err)
	}
}

func mustPlace(t *testing.T, b *Board, bt BlockType, day int) {
	t.Helper()
	if err := b.PlaceBlock(bt, day); err != nil {
		t.Fatalf("PlaceBlock(%s, %d) failed: %v", bt, day, err)
	}
	mustValid(t, b)
}

func TestNewBoard(t *testing.T) {
	b := NewBoard()
	days := b.Days()
	if len(days) != DaysInWeek {
		t.Fatalf("Expected %d days, got %d", DaysInWeek, len(days))
	}
	for i, d := range days {
		if d.Label != Weekdays[i] || !d.Empty() || d.Continuation {
			t.Errorf("Unexpected day %d: %+v", i, d)
		}
	}
	if b.Placement().Awaiting() {
		t.Error("Expected a new board to be idle")
	}
	mustValid(t, b)
}

func TestPlaceBlockPreconditions(t *testing.T) {
	t.Run("NoActiveRecipe", func(t *testing.T) {
		for _, bt := range []BlockType{BlockOneNight, BlockTwoNight} {
			b := newTestBoard(t, "")
			err := b.PlaceBlock(bt, mon)
			if !errors.Is(err, ErrNoActiveRecipe) {
				t.Fatalf("Expected ErrNoActiveRecipe for %s, got %v", bt, err)
			}
			if b.PlannedNights() != 0 || len(b.Meals()) != 0 || b.Placement().Awaiting() {
				t.Errorf("Expected no state change after refused %s placement", bt)
			}
		}
	})

	t.Run("RecipelessBlocksWithoutActiveRecipe", func(t *testing.T) {
		b := newTestBoard(t, "")
		mustPlace(t, b, BlockTakeaway, fri)
		mustPlace(t, b, BlockMum, sat)
		if b.PlannedNights() != 2 {
			t.Errorf("Expected 2 planned nights, got %d", b.PlannedNights())
		}
		day, _ := b.Day(fri)
		meal, _ := b.Meal(day.MealID)
		if meal.RecipeID != "" {
			t.Errorf("Expected takeaway meal without recipe, got %q", meal.RecipeID)
		}
	})

	t.Run("DayOutOfRange", func(t *testing.T) {
		b := newTestBoard(t, "r1")
		for _, idx := range []int{-1, DaysInWeek} {
			if err := b.PlaceBlock(BlockOneNight, idx); !errors.Is(err, ErrDayOutOfRange) {
				t.Errorf("Expected ErrDayOutOfRange for %d, got %v", idx, err)
			}
			if err := b.ClearDay(idx); !errors.Is(err, ErrDayOutOfRange) {
				t.Errorf("Expected ErrDayOutOfRange from ClearDay(%d), got %v", idx, err)
			}
		}
	})

	t.Run("UnknownBlock", func(t *testing.T) {
		b := newTestBoard(t, "r1")
		if err := b.PlaceBlock("brunch", mon); !errors.Is(err, ErrUnknownBlock) {
			t.Errorf("Expected ErrUnknownBlock, got %v", err)
		}
		if len(b.Meals()) != 0 {
			t.Error("Expected no meal registered after refused placement")
		}
	})
}

func TestSingleDayPlacementSequences(t *testing.T) {
	types := []BlockType{BlockOneNight, BlockTwoNight, BlockTakeaway, BlockMum}

	var walk func(seq []BlockType, depth int)
	walk = func(seq []BlockType, depth int) {
		if depth == 0 {
			name := fmt.Sprint(seq)
			t.Run(name, func(t *testing.T) {
				b := newTestBoard(t, "r1")
				for _, bt := range seq {
					mustPlace(t, b, bt, wed)
				}
				day, _ := b.Day(wed)
				if day.Empty() {
					t.Fatal("Expected Wed to hold a meal")
				}
				if len(b.Meals()) != 1 {
					t.Errorf("Expected exactly one registered meal, got %d", len(b.Meals()))
				}
				if b.PlannedNights() != 1 {
					t.Errorf("Expected one planned night, got %d", b.PlannedNights())
				}
			})
			return
		}
		for _, bt := range types {
			walk(append(append([]BlockType(nil), seq...), bt), depth-1)
		}
	}
	for depth := 1; depth <= 3; depth++ {
		walk(nil, depth)
	}
}

func TestTwoNightPlacement(t *testing.T) {
	place := func(t *testing.T) (*Board, string) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockTwoNight, tue)

		p := b.Placement()
		if !p.Awaiting() {
			t.Fatal("Expected placement to await the second night")
		}
		mustPlace(t, b, BlockTwoNight, wed)
		if b.Placement().Awaiting() {
			t.Fatal("Expected placement to be idle after linking")
		}

		anchor, _ := b.Day(tue)
		cont, _ := b.Day(wed)
		if anchor.MealID != p.MealID || cont.MealID != p.MealID {
			t.Fatalf("Expected Tue and Wed to share meal %s, got %s and %s", p.MealID, anchor.MealID, cont.MealID)
		}
		if anchor.Continuation || !cont.Continuation {
			t.Fatalf("Expected Tue anchor and Wed continuation, got %v and %v", anchor.Continuation, cont.Continuation)
		}
		if b.PlannedNights() != 2 || len(b.Meals()) != 1 {
			t.Fatalf("Expected 2 nights and 1 meal, got %d and %d", b.PlannedNights(), len(b.Meals()))
		}
		return b, p.MealID
	}

	t.Run("ClearAnchor", func(t *testing.T) {
		b, id := place(t)
		if err := b.ClearDay(tue); err != nil {
			t.Fatal(err)
		}
		assertGone(t, b, id)
	})

	t.Run("ClearContinuation", func(t *testing.T) {
		b, id := place(t)
		if err := b.ClearDay(wed); err != nil {
			t.Fatal(err)
		}
		assertGone(t, b, id)
	})

	t.Run("RemoveMeal", func(t *testing.T) {
		b, id := place(t)
		b.RemoveMeal(id)
		assertGone(t, b, id)
	})

	t.Run("OverwriteContinuation", func(t *testing.T) {
		b, id := place(t)
		mustPlace(t, b, BlockTakeaway, wed)
		assertGone(t, b, id)
		if b.PlannedNights() != 1 {
			t.Errorf("Expected only the takeaway night, got %d planned", b.PlannedNights())
		}
	})

	t.Run("ContinuationBeforeAnchor", func(t *testing.T) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockTwoNight, fri)
		mustPlace(t, b, BlockTwoNight, mon)
		if !mustDay(t, b, mon).Continuation {
			t.Error("Expected the second click to mark Mon as continuation")
		}
	})
}

func assertGone(t *testing.T, b *Board, id string) {
	t.Helper()
	mustValid(t, b)
	if _, ok := b.Meal(id); ok {
		t.Errorf("Expected meal %s to be removed from the registry", id)
	}
	for _, d := range b.Days() {
		if d.MealID == id {
			t.Errorf("Expected %s to no longer reference %s", d.Label, id)
		}
	}
}

func TestPendingPlacement(t *testing.T) {
	t.Run("SecondClickOnAnchorIsNoOp", func(t *testing.T) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockTwoNight, thu)
		before := b.Document()
		mustPlace(t, b, BlockTwoNight, thu)
		if !b.Placement().Awaiting() {
			t.Error("Expected placement to still await the second night")
		}
		if len(b.Meals()) != len(before.Meals) || b.PlannedNights() != 1 {
			t.Error("Expected no state change from clicking the anchor again")
		}
	})

	t.Run("SecondClickReplacesOccupant", func(t *testing.T) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockOneNight, sat)
		takenID := mustDay(t, b, sat).MealID
		mustPlace(t, b, BlockTwoNight, fri)
		mustPlace(t, b, BlockTwoNight, sat)
		if _, ok := b.Meal(takenID); ok {
			t.Error("Expected the replaced one-night meal to be removed")
		}
		if !mustDay(t, b, sat).Continuation {
			t.Error("Expected Sat to be the continuation night")
		}
	})

	t.Run("SecondClickOntoOtherTwoNightMeal", func(t *testing.T) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockTwoNight, sun)
		mustPlace(t, b, BlockTwoNight, mon)
		first := mustDay(t, b, sun).MealID

		mustPlace(t, b, BlockTwoNight, wed)
		mustPlace(t, b, BlockTwoNight, mon)
		assertGone(t, b, first)
		if !mustDay(t, b, sun).Empty() {
			t.Error("Expected Sun to be unlinked with its partner")
		}
		if b.PlannedNights() != 2 {
			t.Errorf("Expected 2 planned nights, got %d", b.PlannedNights())
		}
	})

	t.Run("CancelKeepsAnchor", func(t *testing.T) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockTwoNight, tue)
		anchor := mustDay(t, b, tue).MealID
		b.CancelPending()
		mustValid(t, b)
		if b.Placement().Awaiting() {
			t.Fatal("Expected idle placement after cancel")
		}
		if mustDay(t, b, tue).MealID != anchor {
			t.Fatal("Expected anchor day to keep its meal")
		}

		mustPlace(t, b, BlockTwoNight, wed)
		if mustDay(t, b, wed).MealID == anchor {
			t.Error("Expected a fresh meal after the pending placement was cancelled")
		}
		if !b.Placement().Awaiting() {
			t.Error("Expected the fresh two-night meal to await its second night")
		}
	})

	t.Run("ClearingAnchorClearsPending", func(t *testing.T) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockTwoNight, tue)
		if err := b.ClearDay(tue); err != nil {
			t.Fatal(err)
		}
		mustValid(t, b)
		if b.Placement().Awaiting() {
			t.Error("Expected pending placement to be cleared with its anchor")
		}
	})

	t.Run("OtherBlocksKeepPending", func(t *testing.T) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockTwoNight, tue)
		mustPlace(t, b, BlockMum, sun)
		if !b.Placement().Awaiting() {
			t.Error("Expected placing a mum night elsewhere to keep the pending two-night meal")
		}
		mustPlace(t, b, BlockOneNight, tue)
		if b.Placement().Awaiting() {
			t.Error("Expected overwriting the anchor to drop the pending placement")
		}
	})

	t.Run("SecondClickDoesNotNeedActiveRecipe", func(t *testing.T) {
		b := newTestBoard(t, "chili")
		mustPlace(t, b, BlockTwoNight, tue)
		b.SelectRecipe("")
		mustPlace(t, b, BlockTwoNight, wed)
		if !mustDay(t, b, wed).Continuation {
			t.Error("Expected Wed to be linked as the continuation night")
		}
	})
}

func mustDay(t *testing.T, b *Board, i int) Day {
	t.Helper()
	d, err := b.Day(i)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRemoveMeal(t *testing.T) {
	t.Run("Unreferenced", func(t *testing.T) {
		b := newTestBoard(t, "r1")
		mustPlace(t, b, BlockOneNight, mon)
		before := b.Days()
		b.RemoveMeal("meal_missing")
		mustValid(t, b)
		after := b.Days()
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("Expected day %d unchanged, got %+v", i, after[i])
			}
		}
	})

	t.Run("SingleNight", func(t *testing.T) {
		b := newTestBoard(t, "r1")
		mustPlace(t, b, BlockOneNight, mon)
		id := mustDay(t, b, mon).MealID
		b.RemoveMeal(id)
		assertGone(t, b, id)
	})

	t.Run("PendingAnchor", func(t *testing.T) {
		b := newTestBoard(t, "r1")
		mustPlace(t, b, BlockTwoNight, mon)
		id := mustDay(t, b, mon).MealID
		b.RemoveMeal(id)
		assertGone(t, b, id)
		if b.Placement().Awaiting() {
			t.Error("Expected pending placement to be cleared")
		}
	})
}

func TestEnsureActiveRecipe(t *testing.T) {
	catalog := recipe.NewCatalog([]recipe.Recipe{{ID: "r1"}, {ID: "r2"}})

	t.Run("KeepsExisting", func(t *testing.T) {
		b := newTestBoard(t, "r2")
		if b.EnsureActiveRecipe(catalog) {
			t.Error("Expected no change")
		}
		if b.ActiveRecipeID() != "r2" {
			t.Errorf("Expected r2, got %q", b.ActiveRecipeID())
		}
	})

	t.Run("FallsBackToFirst", func(t *testing.T) {
		b := newTestBoard(t, "deleted")
		if !b.EnsureActiveRecipe(catalog) {
			t.Error("Expected a change")
		}
		if b.ActiveRecipeID() != "r1" {
			t.Errorf("Expected r1, got %q", b.ActiveRecipeID())
		}
	})

	t.Run("EmptySelectsFirst", func(t *testing.T) {
		b := newTestBoard(t, "")
		b.EnsureActiveRecipe(catalog)
		if b.ActiveRecipeID() != "r1" {
			t.Errorf("Expected r1, got %q", b.ActiveRecipeID())
		}
	})

	t.Run("EmptyCatalog", func(t *testing.T) {
		b := newTestBoard(t, "r1")
		b.EnsureActiveRecipe(recipe.NewCatalog(nil))
		if b.ActiveRecipeID() != "" {
			t.Errorf("Expected no active recipe, got %q", b.ActiveRecipeID())
		}
	})
}

func TestCheckedItems(t *testing.T) {
	b := NewBoard()
	b.SetCheckedItems([]string{"onion 5 pcs", "beef 500 g", "onion 5 pcs"})
	if got := b.CheckedItems(); len(got) != 2 {
		t.Fatalf("Expected duplicates dropped, got %v", got)
	}
	if !b.IsChecked("beef 500 g") || b.IsChecked("beef 400 g") {
		t.Error("Unexpected checked state")
	}
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	types := []BlockType{BlockOneNight, BlockTwoNight, BlockTakeaway, BlockMum}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		b := newTestBoard(t, "r1")
		for step := 0; step < 60; step++ {
			switch op := rng.Intn(10); {
			case op < 6:
				_ = b.PlaceBlock(types[rng.Intn(len(types))], rng.Intn(DaysInWeek))
			case op < 8:
				_ = b.ClearDay(rng.Intn(DaysInWeek))
			case op < 9:
				if d := b.Days()[rng.Intn(DaysInWeek)]; !d.Empty() {
					b.RemoveMeal(d.MealID)
				}
			default:
				b.CancelPending()
			}
			if err := b.Validate(); err != nil {
				t.Fatalf("run %d step %d: %v", run, step, err)
			}
		}
	}
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", sun, false},
		{"6", sat, false},
		{"Tue", tue, false},
		{"tuesday", tue, false},
		{" WED ", wed, false},
		{"thurs", thu, false},
		{"7", 0, true},
		{"-1", 0, true},
		{"tu", 0, true},
		{"tuesdays", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDay(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrDayOutOfRange) {
				t.Errorf("ParseDay(%q): expected ErrDayOutOfRange, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDay(%q): expected %d, got %d (%v)", tt.in, tt.want, got, err)
		}
	}
}
