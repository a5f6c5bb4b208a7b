package recipe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownRecipe is returned when a recipe id is not in the catalog.
var ErrUnknownRecipe = errors.New("unknown recipe")

// Ingredient is one line of a recipe's shopping requirements.
type Ingredient struct {
	Name     string  `json:"name" yaml:"name"`
	Quantity float64 `json:"quantity" yaml:"quantity"`
	Unit     string  `json:"unit" yaml:"unit"`
}

// Validate checks that the ingredient can be aggregated into a grocery line.
func (i Ingredient) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("ingredient name is required")
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("ingredient %q: quantity must be greater than zero", i.Name)
	}
	if strings.TrimSpace(i.Unit) == "" {
		return fmt.Errorf("ingredient %q: unit is required", i.Name)
	}
	return nil
}

// Recipe is a catalog entry. Rotation recipes are the promoted, stable ones;
// everything else is still on trial.
type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	IsRotation  bool         `json:"isRotation"`
	Ingredients []Ingredient `json:"ingredients"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func (r Recipe) clone() Recipe {
	r.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	return r
}

// Catalog is the locally cached snapshot of a user's recipes, in creation order.
type Catalog struct {
	recipes []Recipe
}

// NewCatalog creates a catalog from a loaded snapshot.
func NewCatalog(recipes []Recipe) *Catalog {
	c := &Catalog{}
	c.Replace(recipes)
	return c
}

// Replace swaps the cached snapshot.
func (c *Catalog) Replace(recipes []Recipe) {
	c.recipes = make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		c.recipes = append(c.recipes, r.clone())
	}
}

// Len returns the number of cached recipes.
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// Get returns the recipe with the given id.
func (c *Catalog) Get(id string) (Recipe, bool) {
	if i := c.index(id); i >= 0 {
		return c.recipes[i].clone(), true
	}
	return Recipe{}, false
}

// Has reports whether id is cached.
func (c *Catalog) Has(id string) bool {
	return c.index(id) >= 0
}

// First returns the oldest recipe, if any.
func (c *Catalog) First() (Recipe, bool) {
	if len(c.recipes) == 0 {
		return Recipe{}, false
	}
	return c.recipes[0].clone(), true
}

// Rotation returns the promoted recipes.
func (c *Catalog) Rotation() []Recipe {
	return c.filter(func(r Recipe) bool { return r.IsRotation })
}

// Trial returns the recipes not yet promoted.
func (c *Catalog) Trial() []Recipe {
	return c.filter(func(r Recipe) bool { return !r.IsRotation })
}

// Add appends a newly created recipe.
func (c *Catalog) Add(r Recipe) {
	c.recipes = append(c.recipes, r.clone())
}

// Promote moves a recipe to the rotation list. It returns ErrUnknownRecipe
// when the id is not cached.
func (c *Catalog) Promote(id string) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("promote %s: %w", id, ErrUnknownRecipe)
	}
	c.recipes[i].IsRotation = true
	return nil
}

func (c *Catalog) index(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range c.recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) filter(keep func(Recipe) bool) []Recipe {
	out := make([]Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		if keep(r) {
			out = append(out, r.clone())
		}
	}
	return out
}
