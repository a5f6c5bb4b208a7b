package shopping

import (
	"slices"
	"strconv"
	"strings"

	"meal-board/internal/planner"
	"meal-board/internal/recipe"
)

// Line is one aggregated grocery requirement. Lines are keyed by name and
// unit, so "2 cans beans" and "400 g beans" stay separate.
type Line struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// String formats the line as "{name} {quantity} {unit}". The formatted text
// also identifies the line in the checked set.
func (l Line) String() string {
	return l.Name + " " + strconv.FormatFloat(l.Quantity, 'f', -1, 64) + " " + l.Unit
}

type lineKey struct {
	name string
	unit string
}

// Build aggregates the ingredients of every recipe-bound meal on the board.
// Days are walked in week order and each meal contributes once, so a
// two-night meal is shopped for a single time. Lines keep the order their
// key was first seen. Meals whose recipe is not in the catalog add nothing.
func Build(b *planner.Board, c *recipe.Catalog) []Line {
	var lines []Line
	index := make(map[lineKey]int)
	seen := make(map[string]bool)

	for _, day := range b.Days() {
		if day.Empty() || seen[day.MealID] {
			continue
		}
		seen[day.MealID] = true

		meal, ok := b.Meal(day.MealID)
		if !ok || meal.RecipeID == "" {
			continue
		}
		rec, ok := c.Get(meal.RecipeID)
		if !ok {
			continue
		}
		for _, ing := range rec.Ingredients {
			k := lineKey{name: ing.Name, unit: ing.Unit}
			if i, ok := index[k]; ok {
				lines[i].Quantity += ing.Quantity
				continue
			}
			index[k] = len(lines)
			lines = append(lines, Line{Name: ing.Name, Unit: ing.Unit, Quantity: ing.Quantity})
		}
	}
	return lines
}

// Split partitions lines into checked and unchecked, preserving order.
func Split(lines []Line, checked []string) (done, todo []Line) {
	for _, l := range lines {
		if slices.Contains(checked, l.String()) {
			done = append(done, l)
		} else {
			todo = append(todo, l)
		}
	}
	return done, todo
}

// Export renders the unchecked lines as a plain-text list ready for the
// clipboard: one "- " bullet per line, CRLF separated.
func Export(lines []Line, checked []string) string {
	_, todo := Split(lines, checked)
	out := make([]string, 0, len(todo))
	for _, l := range todo {
		out = append(out, "- "+l.String())
	}
	return strings.Join(out, "\r\n")
}

// Toggle flips the checked state of a formatted line and returns the new
// checked set, restricted to lines that are still on the list. Entries for
// lines that disappeared since they were checked are dropped.
func Toggle(lines []Line, checked []string, line string, on bool) []string {
	out := make([]string, 0, len(checked)+1)
	for _, l := range lines {
		s := l.String()
		isChecked := slices.Contains(checked, s)
		if s == line {
			isChecked = on
		}
		if isChecked {
			out = append(out, s)
		}
	}
	return out
}

// Prune restricts a checked set to the lines still on the list.
func Prune(lines []Line, checked []string) []string {
	out := make([]string, 0, len(checked))
	for _, l := range lines {
		if s := l.String(); slices.Contains(checked, s) {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether line is the formatted text of one of lines.
func Contains(lines []Line, line string) bool {
	return slices.ContainsFunc(lines, func(l Line) bool { return l.String() == line })
}
