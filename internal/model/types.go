// Package model defines domain types used by the service.
package model

import "time"

// Ingredient is one line of a recipe's ingredient list. Amount is the
// quantity for the recipe's base servings.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit,omitempty"`
}

// Recipe represents a stored recipe.
type Recipe struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions string       `json:"instructions"`
	Servings     int          `json:"servings"`
	TimeToCook   string       `json:"time_to_cook,omitempty"`
	Diets        []string     `json:"diets,omitempty"`
	ImageURL     string       `json:"image_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Like status values reported by the like endpoint.
const (
	StatusLiked   = "liked"
	StatusUnliked = "unliked"
)

// LikeResult is the authoritative outcome of a like toggle.
type LikeResult struct {
	Status     string `json:"status"`
	LikesCount int    `json:"likes_count"`
}

// NutritionFact is a single per-serving nutrient line of a recipe.
type NutritionFact struct {
	RecipeID          int64   `json:"recipe_id"`
	Nutrient          string  `json:"nutrient"`
	Label             string  `json:"label"`
	Amount            float64 `json:"amount"`
	Unit              string  `json:"unit"`
	DailyValuePercent *int    `json:"daily_value_percent,omitempty"`
}

// NutritionJob asks the worker pool to analyze a recipe.
type NutritionJob struct {
	RecipeID int64  `json:"recipe_id"`
	Sequence uint64 `json:"-"`
}
