package recipe

import (
	"errors"
	"testing"
)

func TestCatalog(t *testing.T) {
	c := NewCatalog([]Recipe{
		{ID: "r1", Name: "Chili", IsRotation: true},
		{ID: "r2", Name: "Tacos"},
		{ID: "r3", Name: "Curry"},
	})

	t.Run("Lists", func(t *testing.T) {
		if c.Len() != 3 {
			t.Fatalf("Expected 3 recipes, got %d", c.Len())
		}
		if got := c.Rotation(); len(got) != 1 || got[0].ID != "r1" {
			t.Errorf("Expected rotation [r1], got %v", got)
		}
		if got := c.Trial(); len(got) != 2 || got[0].ID != "r2" || got[1].ID != "r3" {
			t.Errorf("Expected trial [r2 r3], got %v", got)
		}
		first, ok := c.First()
		if !ok || first.ID != "r1" {
			t.Errorf("Expected first recipe r1, got %v", first)
		}
	})

	t.Run("Promote", func(t *testing.T) {
		if err := c.Promote("r3"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		rec, _ := c.Get("r3")
		if !rec.IsRotation {
			t.Error("Expected r3 to be in rotation after promote")
		}
		if got := c.Trial(); len(got) != 1 {
			t.Errorf("Expected 1 trial recipe left, got %d", len(got))
		}
	})

	t.Run("PromoteUnknown", func(t *testing.T) {
		err := c.Promote("missing")
		if !errors.Is(err, ErrUnknownRecipe) {
			t.Errorf("Expected ErrUnknownRecipe, got %v", err)
		}
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		c.Add(Recipe{ID: "r4", Name: "Soup", Ingredients: []Ingredient{{Name: "leek", Quantity: 1, Unit: "pcs"}}})
		rec, _ := c.Get("r4")
		rec.Ingredients[0].Quantity = 99
		again, _ := c.Get("r4")
		if again.Ingredients[0].Quantity != 1 {
			t.Error("Expected catalog contents to be unaffected by caller mutation")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		empty := NewCatalog(nil)
		if _, ok := empty.First(); ok {
			t.Error("Expected no first recipe in an empty catalog")
		}
		if empty.Has("") {
			t.Error("Expected empty id to never match")
		}
	})
}

func TestIngredientValidate(t *testing.T) {
	cases := []struct {
		name    string
		ing     Ingredient
		wantErr bool
	}{
		{"Valid", Ingredient{Name: "beans", Quantity: 2, Unit: "cans"}, false},
		{"MissingName", Ingredient{Quantity: 2, Unit: "cans"}, true},
		{"ZeroQuantity", Ingredient{Name: "beans", Unit: "cans"}, true},
		{"MissingUnit", Ingredient{Name: "beans", Quantity: 2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ing.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseSeed(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f, err := ParseSeed([]byte(`
recipes:
  - name: Chili
    rotation: true
    ingredients:
      - {name: beans, quantity: 2, unit: cans}
      - {name: beef, quantity: 500, unit: g}
  - name: Pasta
`))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(f.Recipes) != 2 {
			t.Fatalf("Expected 2 recipes, got %d", len(f.Recipes))
		}
		if !f.Recipes[0].Rotation || len(f.Recipes[0].Ingredients) != 2 {
			t.Errorf("Unexpected first recipe: %+v", f.Recipes[0])
		}
		if f.Recipes[0].Ingredients[1].Quantity != 500 {
			t.Errorf("Expected beef quantity 500, got %v", f.Recipes[0].Ingredients[1].Quantity)
		}
	})

	t.Run("InvalidIngredient", func(t *testing.T) {
		_, err := ParseSeed([]byte("recipes:\n  - name: Chili\n    ingredients:\n      - {name: beans, quantity: 0, unit: cans}\n"))
		if err == nil {
			t.Fatal("Expected an error for zero quantity, got nil")
		}
	})

	t.Run("MissingName", func(t *testing.T) {
		_, err := ParseSeed([]byte("recipes:\n  - rotation: true\n"))
		if err == nil {
			t.Fatal("Expected an error for missing name, got nil")
		}
	})
}
