package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
)

// SeedRecipes are loaded into an empty store at startup when seeding is on.
var SeedRecipes = []model.Recipe{
	{
		Title:       "Vegetable Stir Fry",
		Description: "Quick weeknight stir fry with crisp vegetables.",
		Ingredients: []model.Ingredient{
			{Name: "bell pepper", Amount: 1, Unit: "large"},
			{Name: "broccoli florets", Amount: 2, Unit: "cups"},
			{Name: "snap peas", Amount: 1, Unit: "cup"},
			{Name: "garlic", Amount: 3, Unit: "cloves"},
			{Name: "soy sauce", Amount: 2, Unit: "tablespoons"},
			{Name: "vegetable oil", Amount: 2, Unit: "tablespoons"},
		},
		Instructions: "Heat the oil in a wok until smoking. Stir fry the vegetables for 4 minutes, add garlic and soy sauce, toss and serve.",
		Servings:     2,
		TimeToCook:   "20 mins",
		Diets:        []string{"vegetarian", "vegan"},
	},
	{
		Title:       "Chicken Alfredo",
		Description: "Creamy pasta with seared chicken.",
		Ingredients: []model.Ingredient{
			{Name: "spaghetti", Amount: 250, Unit: "grams"},
			{Name: "chicken breast", Amount: 2, Unit: "pieces"},
			{Name: "creme fraiche", Amount: 1, Unit: "cup"},
			{Name: "gruyere cheese", Amount: 1, Unit: "cup"},
			{Name: "garlic", Amount: 4, Unit: "cloves"},
			{Name: "olive oil", Amount: 1, Unit: "tablespoon"},
		},
		Instructions: "Boil the pasta. Sear the chicken in olive oil, then build the sauce with garlic, creme fraiche and cheese. Toss everything together.",
		Servings:     4,
		TimeToCook:   "35 mins",
	},
}

// Seed inserts SeedRecipes when the store holds no recipes yet. It returns
// the number of recipes inserted.
func Seed(ctx context.Context, st Store) (int, error) {
	existing, err := st.ListRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing recipes: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	n := 0
	for _, r := range SeedRecipes {
		if _, err := st.CreateRecipe(ctx, r); err != nil {
			if errors.Is(err, ErrDuplicateTitle) {
				continue
			}
			return n, fmt.Errorf("seeding %q: %w", r.Title, err)
		}
		n++
	}
	return n, nil
}
