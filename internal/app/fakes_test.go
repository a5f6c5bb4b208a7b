package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meal-board/internal/auth"
	"meal-board/internal/clipper"
	"meal-board/internal/recipe"
)

var errStoreDown = errors.New("store down")

type fakeRecipeStore struct {
	mu      sync.Mutex
	recipes map[string][]recipe.Recipe
	nextID  int
	failAll bool
}

func newFakeRecipeStore() *fakeRecipeStore {
	return &fakeRecipeStore{recipes: make(map[string][]recipe.Recipe)}
}

func (f *fakeRecipeStore) seed(userID string, recs ...recipe.Recipe) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipes[userID] = append(f.recipes[userID], recs...)
}

func (f *fakeRecipeStore) fail(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = on
}

func (f *fakeRecipeStore) ListRecipes(_ context.Context, userID string) ([]recipe.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errStoreDown
	}
	return append([]recipe.Recipe(nil), f.recipes[userID]...), nil
}

func (f *fakeRecipeStore) CreateRecipe(_ context.Context, userID, name string, isRotation bool, ingredients []recipe.Ingredient) (recipe.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return recipe.Recipe{}, errStoreDown
	}
	f.nextID++
	rec := recipe.Recipe{
		ID:          fmt.Sprintf("rec-%d", f.nextID),
		Name:        name,
		IsRotation:  isRotation,
		Ingredients: append([]recipe.Ingredient(nil), ingredients...),
	}
	f.recipes[userID] = append(f.recipes[userID], rec)
	return rec, nil
}

func (f *fakeRecipeStore) SetRotation(_ context.Context, recipeID string, rotation bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errStoreDown
	}
	for user, recs := range f.recipes {
		for i := range recs {
			if recs[i].ID == recipeID {
				f.recipes[user][i].IsRotation = rotation
				return nil
			}
		}
	}
	return recipe.ErrUnknownRecipe
}

type fakeStateStore struct {
	mu      sync.Mutex
	docs    map[string][]byte
	saved   map[string]time.Time
	puts    int
	failGet bool
	failPut bool
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{docs: make(map[string][]byte), saved: make(map[string]time.Time)}
}

func (f *fakeStateStore) GetState(_ context.Context, userID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, errStoreDown
	}
	return f.docs[userID], nil
}

func (f *fakeStateStore) PutState(_ context.Context, userID string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errStoreDown
	}
	f.puts++
	f.docs[userID] = append([]byte(nil), data...)
	f.saved[userID] = time.Now()
	return nil
}

func (f *fakeStateStore) UpdatedAt(_ context.Context, userID string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return time.Time{}, errStoreDown
	}
	return f.saved[userID], nil
}

func (f *fakeStateStore) snapshot(userID string) ([]byte, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[userID], f.puts
}

func (f *fakeStateStore) set(userID, doc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[userID] = []byte(doc)
	f.saved[userID] = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
}

type fakeSessions struct {
	tokens map[string]string
	err    error
}

func (f *fakeSessions) CurrentUser(_ context.Context, token string) (*auth.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	id, ok := f.tokens[token]
	if !ok {
		return nil, auth.ErrInvalidSession
	}
	return &auth.User{ID: id, Email: id + "@example.com"}, nil
}

type fakeClipper struct {
	draft *clipper.Draft
	err   error
}

func (f *fakeClipper) ClipURL(_ context.Context, url string) (*clipper.Draft, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := *f.draft
	d.SourceURL = url
	return &d, nil
}
