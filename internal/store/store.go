// Package store persists recipes, likes and nutrition facts.
package store

import (
	"context"
	"errors"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
)

var (
	// ErrNotFound indicates the recipe does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateTitle indicates another recipe already uses the title.
	ErrDuplicateTitle = errors.New("recipe title already exists")
)

// Store is implemented by the in-memory and SQLite backends. All methods are
// safe for concurrent use.
type Store interface {
	CreateRecipe(ctx context.Context, r model.Recipe) (model.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (model.Recipe, error)
	// ListRecipes returns all recipes, newest first.
	ListRecipes(ctx context.Context) ([]model.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	// SearchRecipes returns recipes matching any term, newest first, each once.
	SearchRecipes(ctx context.Context, terms []string) ([]model.Recipe, error)

	// ToggleLike flips the visitor's like on the recipe and returns the new
	// like state and the recipe's like count.
	ToggleLike(ctx context.Context, visitorID string, recipeID int64) (liked bool, count int, err error)
	LikeCount(ctx context.Context, recipeID int64) (int, error)
	LikedBy(ctx context.Context, visitorID string, recipeID int64) (bool, error)

	// SaveNutrition replaces the recipe's nutrition facts.
	SaveNutrition(ctx context.Context, recipeID int64, facts []model.NutritionFact) error
	Nutrition(ctx context.Context, recipeID int64) ([]model.NutritionFact, error)

	Close() error
}
