package planner

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"meal-board/internal/recipe"
)

// DaysInWeek is the fixed number of slots on the board.
const DaysInWeek = 7

// Weekdays are the slot labels, in board order.
var Weekdays = [DaysInWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var (
	ErrNoActiveRecipe = errors.New("no active recipe selected")
	ErrDayOutOfRange  = errors.New("day index out of range")
	ErrUnknownBlock   = errors.New("unknown block type")
)

// BlockType is the kind of meal block dropped on a day.
type BlockType string

const (
	BlockOneNight BlockType = "oneNight"
	BlockTwoNight BlockType = "twoNight"
	BlockTakeaway BlockType = "takeaway"
	BlockMum      BlockType = "mum"
)

// Valid reports whether b is one of the four block kinds.
func (b BlockType) Valid() bool {
	switch b {
	case BlockOneNight, BlockTwoNight, BlockTakeaway, BlockMum:
		return true
	}
	return false
}

// NeedsRecipe reports whether placing b binds the active recipe.
func (b BlockType) NeedsRecipe() bool {
	return b == BlockOneNight || b == BlockTwoNight
}

// Label is the human name of the block, as shown on a placed meal card.
func (b BlockType) Label() string {
	switch b {
	case BlockTwoNight:
		return "2-night meal"
	case BlockTakeaway:
		return "Takeaway night"
	case BlockMum:
		return "Mum's food"
	default:
		return "1-night meal"
	}
}

// Day is one slot of the week.
type Day struct {
	Label        string `json:"label"`
	MealID       string `json:"mealId,omitempty"`
	Continuation bool   `json:"continuation"`
}

// Empty reports whether no meal is placed on the day.
func (d Day) Empty() bool {
	return d.MealID == ""
}

// Meal is a placed block. RecipeID is empty for takeaway and mum nights.
type Meal struct {
	ID       string    `json:"id"`
	Type     BlockType `json:"type"`
	RecipeID string    `json:"recipeId,omitempty"`
}

// Board is the planner state machine for one user's week. It is not safe for
// concurrent use; callers serialise access.
type Board struct {
	days           [DaysInWeek]Day
	meals          map[string]Meal
	activeRecipeID string
	checkedItems   []string
	placement      Placement
	newID          func() string
}

// NewBoard returns an empty week.
func NewBoard() *Board {
	b := &Board{
		meals: make(map[string]Meal),
		newID: func() string { return "meal_" + uuid.NewString() },
	}
	b.resetDays()
	return b
}

func (b *Board) resetDays() {
	for i, label := range Weekdays {
		b.days[i] = Day{Label: label}
	}
}

// Days returns a copy of the seven slots.
func (b *Board) Days() []Day {
	return slices.Clone(b.days[:])
}

// Day returns the slot at index.
func (b *Board) Day(index int) (Day, error) {
	if err := checkDay(index); err != nil {
		return Day{}, err
	}
	return b.days[index], nil
}

// Meal looks up a placed meal.
func (b *Board) Meal(id string) (Meal, bool) {
	m, ok := b.meals[id]
	return m, ok
}

// Meals returns a copy of the meal registry.
func (b *Board) Meals() map[string]Meal {
	out := make(map[string]Meal, len(b.meals))
	for id, m := range b.meals {
		out[id] = m
	}
	return out
}

// ActiveRecipeID returns the recipe new one- and two-night blocks bind to.
func (b *Board) ActiveRecipeID() string {
	return b.activeRecipeID
}

// SelectRecipe sets the active recipe pointer. The caller checks the id
// against its catalog.
func (b *Board) SelectRecipe(recipeID string) {
	b.activeRecipeID = recipeID
}

// EnsureActiveRecipe resets the active recipe to the catalog's first recipe
// when it no longer exists, or clears it when the catalog is empty. It
// reports whether the pointer changed.
func (b *Board) EnsureActiveRecipe(c *recipe.Catalog) bool {
	before := b.activeRecipeID
	if c.Len() == 0 {
		b.activeRecipeID = ""
	} else if !c.Has(b.activeRecipeID) {
		first, _ := c.First()
		b.activeRecipeID = first.ID
	}
	return before != b.activeRecipeID
}

// Placement returns the current placement gesture state.
func (b *Board) Placement() Placement {
	return b.placement
}

// PlannedNights counts the days that have a meal.
func (b *Board) PlannedNights() int {
	n := 0
	for _, d := range b.days {
		if !d.Empty() {
			n++
		}
	}
	return n
}

// PlaceBlock drops a block of the given type on a day. A two-night block
// anchors on the first call and links its second night on the next
// two-night call. Preconditions are checked before anything changes.
func (b *Board) PlaceBlock(t BlockType, dayIndex int) error {
	if err := checkDay(dayIndex); err != nil {
		return err
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBlock, t)
	}

	if t == BlockTwoNight && b.placement.Awaiting() {
		pendingID := b.placement.MealID
		if _, ok := b.meals[pendingID]; !ok {
			b.placement = Idle()
		} else {
			if b.days[dayIndex].MealID == pendingID {
				return nil
			}
			b.clearDay(dayIndex)
			b.days[dayIndex].MealID = pendingID
			b.days[dayIndex].Continuation = true
			b.placement = Idle()
			return nil
		}
	}

	var recipeID string
	if t.NeedsRecipe() {
		if b.activeRecipeID == "" {
			return ErrNoActiveRecipe
		}
		recipeID = b.activeRecipeID
	}

	meal := Meal{ID: b.newID(), Type: t, RecipeID: recipeID}
	b.meals[meal.ID] = meal

	b.clearDay(dayIndex)
	b.days[dayIndex].MealID = meal.ID
	b.days[dayIndex].Continuation = false

	if t == BlockTwoNight {
		b.placement = AwaitingSecondNight(meal.ID)
	}
	return nil
}

// ClearDay removes the meal on a day together with its partner night, and
// drops the meal from the registry. Clearing an empty day is a no-op.
func (b *Board) ClearDay(dayIndex int) error {
	if err := checkDay(dayIndex); err != nil {
		return err
	}
	b.clearDay(dayIndex)
	return nil
}

func (b *Board) clearDay(dayIndex int) {
	mealID := b.days[dayIndex].MealID
	if mealID == "" {
		return
	}
	b.days[dayIndex] = Day{Label: b.days[dayIndex].Label}

	// A meal has at most one partner night; Validate asserts it.
	for i := range b.days {
		if i != dayIndex && b.days[i].MealID == mealID {
			b.days[i] = Day{Label: b.days[i].Label}
			break
		}
	}

	delete(b.meals, mealID)
	if b.placement.MealID == mealID {
		b.placement = Idle()
	}
}

// RemoveMeal clears every day referencing the meal and drops it. A meal no
// day references is simply dropped.
func (b *Board) RemoveMeal(mealID string) {
	for i := range b.days {
		if b.days[i].MealID == mealID {
			b.days[i] = Day{Label: b.days[i].Label}
		}
	}
	delete(b.meals, mealID)
	if b.placement.MealID == mealID {
		b.placement = Idle()
	}
}

// CancelPending abandons the second-night click. The anchor night keeps its meal.
func (b *Board) CancelPending() {
	b.placement = Idle()
}

// CheckedItems returns the formatted grocery lines the user crossed off.
func (b *Board) CheckedItems() []string {
	return slices.Clone(b.checkedItems)
}

// IsChecked reports whether a formatted grocery line is crossed off.
func (b *Board) IsChecked(line string) bool {
	return slices.Contains(b.checkedItems, line)
}

// SetCheckedItems replaces the checked set, dropping duplicates.
func (b *Board) SetCheckedItems(lines []string) {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	b.checkedItems = out
}

func (b *Board) referencingDays(mealID string) []int {
	var out []int
	for i, d := range b.days {
		if d.MealID == mealID {
			out = append(out, i)
		}
	}
	return out
}

func checkDay(index int) error {
	if index < 0 || index >= DaysInWeek {
		return fmt.Errorf("%w: %d", ErrDayOutOfRange, index)
	}
	return nil
}

// ParseDay accepts a day index ("0".."6") or a weekday name ("Tue",
// "tuesday", any case) and returns the index.
func ParseDay(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if err := checkDay(n); err != nil {
			return 0, err
		}
		return n, nil
	}
	if len(s) >= 3 {
		prefix := strings.ToLower(s[:3])
		for i, label := range Weekdays {
			if strings.ToLower(label) == prefix && strings.HasPrefix(strings.ToLower(fullWeekdays[i]), strings.ToLower(s)) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrDayOutOfRange, s)
}

var fullWeekdays = [DaysInWeek]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
