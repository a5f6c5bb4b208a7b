package planner

import (
	"encoding/json"
	"fmt"
)

// Document is the persisted shape of a board, one per user:
//
//	{"days":[{label,mealId,continuation}]x7,"meals":{id:{id,type,recipeId}},
//	 "activeRecipeId":..., "checkedItems":[...]}
//
// The placement gesture is not persisted.
type Document struct {
	Days           []DayRecord           `json:"days"`
	Meals          map[string]MealRecord `json:"meals"`
	ActiveRecipeID *string               `json:"activeRecipeId"`
	CheckedItems   []string              `json:"checkedItems"`
}

// DayRecord is a persisted day slot.
type DayRecord struct {
	Label        string  `json:"label"`
	MealID       *string `json:"mealId"`
	Continuation bool    `json:"continuation"`
}

// MealRecord is a persisted meal.
type MealRecord struct {
	ID       string    `json:"id"`
	Type     BlockType `json:"type"`
	RecipeID *string   `json:"recipeId"`
}

// DecodeDocument parses a stored state document.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal planner state: %w", err)
	}
	return doc, nil
}

// Encode serialises the document for a state store.
func (d Document) Encode() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal planner state: %w", err)
	}
	return data, nil
}

// Document snapshots the board for persistence.
func (b *Board) Document() Document {
	doc := Document{
		Days:         make([]DayRecord, 0, DaysInWeek),
		Meals:        make(map[string]MealRecord, len(b.meals)),
		CheckedItems: append([]string{}, b.checkedItems...),
	}
	for _, d := range b.days {
		doc.Days = append(doc.Days, DayRecord{
			Label:        d.Label,
			MealID:       optional(d.MealID),
			Continuation: d.Continuation,
		})
	}
	for id, m := range b.meals {
		doc.Meals[id] = MealRecord{ID: m.ID, Type: m.Type, RecipeID: optional(m.RecipeID)}
	}
	doc.ActiveRecipeID = optional(b.activeRecipeID)
	return doc
}

// Apply replaces the board with a loaded document. Missing or short day
// lists are padded with the fixed weekday labels, missing meals and checked
// items default to empty, and a null active recipe keeps the current one.
// References that would break the board invariants are dropped; Apply
// returns how many were repaired. The placement gesture resets to idle.
func (b *Board) Apply(doc Document) int {
	repaired := 0

	b.meals = make(map[string]Meal, len(doc.Meals))
	for key, rec := range doc.Meals {
		m := Meal{ID: key, Type: rec.Type, RecipeID: deref(rec.RecipeID)}
		if key == "" || !m.Type.Valid() || m.Type.NeedsRecipe() != (m.RecipeID != "") {
			repaired++
			continue
		}
		b.meals[key] = m
	}

	for i, label := range Weekdays {
		day := Day{Label: label}
		if i < len(doc.Days) {
			rec := doc.Days[i]
			day.MealID = deref(rec.MealID)
			day.Continuation = rec.Continuation && day.MealID != ""
			if day.MealID != "" {
				if _, ok := b.meals[day.MealID]; !ok {
					day = Day{Label: label}
					repaired++
				}
			}
		}
		b.days[i] = day
	}

	for id, m := range b.meals {
		repaired += b.normalizeMeal(m)
		if len(b.referencingDays(id)) == 0 {
			delete(b.meals, id)
			repaired++
		}
	}

	if id := deref(doc.ActiveRecipeID); id != "" {
		b.activeRecipeID = id
	}
	b.SetCheckedItems(doc.CheckedItems)
	b.placement = Idle()
	return repaired
}

// normalizeMeal keeps one anchor night and, for two-night meals, at most one
// continuation night.
func (b *Board) normalizeMeal(m Meal) int {
	refs := b.referencingDays(m.ID)
	if len(refs) == 0 {
		return 0
	}

	repaired := 0
	anchor := -1
	for _, i := range refs {
		if !b.days[i].Continuation {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		anchor = refs[0]
		b.days[anchor].Continuation = false
		repaired++
	}

	linked := false
	for _, i := range refs {
		if i == anchor {
			continue
		}
		if m.Type == BlockTwoNight && !linked {
			if !b.days[i].Continuation {
				b.days[i].Continuation = true
				repaired++
			}
			linked = true
			continue
		}
		b.days[i] = Day{Label: b.days[i].Label}
		repaired++
	}
	return repaired
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
