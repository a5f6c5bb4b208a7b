package recipe

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedRecipe is one entry of a recipes YAML file:
//
//	recipes:
//	  - name: Chili
//	    rotation: true
//	    ingredients:
//	      - {name: beans, quantity: 2, unit: cans}
type SeedRecipe struct {
	Name        string       `yaml:"name"`
	Rotation    bool         `yaml:"rotation"`
	Ingredients []Ingredient `yaml:"ingredients"`
}

// SeedFile is the top-level document of a recipes YAML file.
type SeedFile struct {
	Recipes []SeedRecipe `yaml:"recipes"`
}

// ParseSeed decodes and validates a recipes YAML document.
func ParseSeed(data []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, r := range f.Recipes {
		if r.Name == "" {
			return nil, fmt.Errorf("recipe #%d: name is required", i+1)
		}
		for _, ing := range r.Ingredients {
			if err := ing.Validate(); err != nil {
				return nil, fmt.Errorf("recipe %q: %w", r.Name, err)
			}
		}
	}
	return &f, nil
}

// LoadSeedFile reads a recipes YAML file from disk.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// Seed stores every recipe of the file for userID and returns how many were created.
func (r *Repository) Seed(ctx context.Context, userID string, f *SeedFile) (int, error) {
	created := 0
	for _, sr := range f.Recipes {
		if _, err := r.CreateRecipe(ctx, userID, sr.Name, sr.Rotation, sr.Ingredients); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
