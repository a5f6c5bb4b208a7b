package planner

import (
	"errors"
	"fmt"
)

// ErrInvariant wraps every violation reported by Validate.
var ErrInvariant = errors.New("board invariant violated")

// Validate checks the structural invariants of the board: fixed weekday
// slots, a meal exists iff a day references it, a meal spans at most two
// days with exactly one anchor, only two-night meals continue, and a pending
// placement points at an unlinked two-night anchor.
func (b *Board) Validate() error {
	for i, d := range b.days {
		if d.Label != Weekdays[i] {
			return fmt.Errorf("%w: day %d labelled %q, want %q", ErrInvariant, i, d.Label, Weekdays[i])
		}
		if d.Empty() && d.Continuation {
			return fmt.Errorf("%w: empty day %s marked as continuation", ErrInvariant, d.Label)
		}
		if !d.Empty() {
			if _, ok := b.meals[d.MealID]; !ok {
				return fmt.Errorf("%w: day %s references unknown meal %s", ErrInvariant, d.Label, d.MealID)
			}
		}
	}

	for id, m := range b.meals {
		if m.ID != id {
			return fmt.Errorf("%w: meal registered as %s has id %s", ErrInvariant, id, m.ID)
		}
		if !m.Type.Valid() {
			return fmt.Errorf("%w: meal %s has unknown type %q", ErrInvariant, id, m.Type)
		}
		if m.Type.NeedsRecipe() != (m.RecipeID != "") {
			return fmt.Errorf("%w: meal %s of type %s has recipe %q", ErrInvariant, id, m.Type, m.RecipeID)
		}

		refs := b.referencingDays(id)
		if len(refs) == 0 {
			return fmt.Errorf("%w: meal %s is not on any day", ErrInvariant, id)
		}
		if len(refs) > 2 {
			return fmt.Errorf("%w: meal %s is on %d days", ErrInvariant, id, len(refs))
		}
		anchors := 0
		for _, i := range refs {
			if !b.days[i].Continuation {
				anchors++
			}
		}
		if anchors != 1 {
			return fmt.Errorf("%w: meal %s has %d anchor nights", ErrInvariant, id, anchors)
		}
		if len(refs) == 2 && m.Type != BlockTwoNight {
			return fmt.Errorf("%w: %s meal %s spans two nights", ErrInvariant, m.Type, id)
		}
	}

	if b.placement.Awaiting() {
		m, ok := b.meals[b.placement.MealID]
		if !ok {
			return fmt.Errorf("%w: pending meal %s is not registered", ErrInvariant, b.placement.MealID)
		}
		if m.Type != BlockTwoNight || len(b.referencingDays(m.ID)) != 1 {
			return fmt.Errorf("%w: pending meal %s is not an unlinked two-night anchor", ErrInvariant, m.ID)
		}
	} else if b.placement.MealID != "" {
		return fmt.Errorf("%w: idle placement carries meal %s", ErrInvariant, b.placement.MealID)
	}
	return nil
}
