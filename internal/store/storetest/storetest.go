// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/store"
)

// Factory returns a fresh, empty store. Cleanup is the caller's business
// (t.Cleanup).
type Factory func(t *testing.T) store.Store

// Run exercises the Store contract against stores made by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateGetList", func(t *testing.T) { testCreateGetList(t, newStore(t)) })
	t.Run("DuplicateTitle", func(t *testing.T) { testDuplicateTitle(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("Search", func(t *testing.T) { testSearch(t, newStore(t)) })
	t.Run("ToggleLike", func(t *testing.T) { testToggleLike(t, newStore(t)) })
	t.Run("ConcurrentLikes", func(t *testing.T) { testConcurrentLikes(t, newStore(t)) })
	t.Run("Nutrition", func(t *testing.T) { testNutrition(t, newStore(t)) })
	t.Run("Seed", func(t *testing.T) { testSeed(t, newStore(t)) })
}

// Recipe returns a valid recipe with the given title.
func Recipe(title string) model.Recipe {
	return model.Recipe{
		Title:        title,
		Description:  "test recipe",
		Ingredients:  []model.Ingredient{{Name: "rice", Amount: 2, Unit: "cups"}, {Name: "garlic", Amount: 3, Unit: "cloves"}},
		Instructions: "Cook the rice. Fry the garlic.",
		Servings:     4,
		Diets:        []string{"vegan"},
	}
}

func testCreateGetList(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, err := s.CreateRecipe(ctx, Recipe("first"))
	require.NoError(t, err)
	b, err := s.CreateRecipe(ctx, Recipe("second"))
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := s.GetRecipe(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, 4, got.Servings)
	assert.Equal(t, []model.Ingredient{{Name: "rice", Amount: 2, Unit: "cups"}, {Name: "garlic", Amount: 3, Unit: "cloves"}}, got.Ingredients)
	assert.Equal(t, []string{"vegan"}, got.Diets)

	list, err := s.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title, "newest first")
	assert.Equal(t, "first", list[1].Title)

	_, err = s.GetRecipe(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateTitle(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.CreateRecipe(ctx, Recipe("dup"))
	require.NoError(t, err)
	_, err = s.CreateRecipe(ctx, Recipe("dup"))
	assert.ErrorIs(t, err, store.ErrDuplicateTitle)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	r, err := s.CreateRecipe(ctx, Recipe("gone"))
	require.NoError(t, err)
	_, _, err = s.ToggleLike(ctx, "v1", r.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRecipe(ctx, r.ID))
	_, err = s.GetRecipe(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteRecipe(ctx, r.ID), store.ErrNotFound)
	_, err = s.LikeCount(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testSearch(t *testing.T, s store.Store) {
	ctx := context.Background()
	stir := Recipe("Vegetable Stir Fry")
	stir.Ingredients = []model.Ingredient{{Name: "snap peas", Amount: 1}}
	stir.Instructions = "Use a wok."
	_, err := s.CreateRecipe(ctx, stir)
	require.NoError(t, err)
	soup := Recipe("Tomato Soup")
	soup.Ingredients = []model.Ingredient{{Name: "tomato", Amount: 6}, {Name: "peas", Amount: 1}}
	soup.Instructions = "Simmer."
	_, err = s.CreateRecipe(ctx, soup)
	require.NoError(t, err)

	got, err := s.SearchRecipes(ctx, []string{"stir"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Vegetable Stir Fry", got[0].Title)

	got, err = s.SearchRecipes(ctx, []string{"PEAS", "wok", "tomato"})
	require.NoError(t, err)
	require.Len(t, got, 2, "each recipe once")
	assert.Equal(t, "Tomato Soup", got[0].Title, "newest first")

	got, err = s.SearchRecipes(ctx, []string{"simmer"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = s.SearchRecipes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testToggleLike(t *testing.T, s store.Store) {
	ctx := context.Background()
	r, err := s.CreateRecipe(ctx, Recipe("likeable"))
	require.NoError(t, err)

	liked, n, err := s.ToggleLike(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, n)

	liked, n, err = s.ToggleLike(ctx, "bob", r.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 2, n)

	liked, n, err = s.ToggleLike(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, n)

	ok, err := s.LikedBy(ctx, "bob", r.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.LikedBy(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = s.LikeCount(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, _, err = s.ToggleLike(ctx, "alice", 4242)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentLikes(t *testing.T, s store.Store) {
	ctx := context.Background()
	r, err := s.CreateRecipe(ctx, Recipe("popular"))
	require.NoError(t, err)
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, _, err := s.ToggleLike(ctx, fmt.Sprintf("v-%d", i), r.ID); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	n, err := s.LikeCount(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func testNutrition(t *testing.T, s store.Store) {
	ctx := context.Background()
	r, err := s.CreateRecipe(ctx, Recipe("nutritious"))
	require.NoError(t, err)

	facts, err := s.Nutrition(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, facts)

	dv := 12
	require.NoError(t, s.SaveNutrition(ctx, r.ID, []model.NutritionFact{
		{Nutrient: "ENERC_KCAL", Label: "Energy", Amount: 250, Unit: "kcal", DailyValuePercent: &dv},
		{Nutrient: "FAT", Label: "Fat", Amount: 9.5, Unit: "g"},
	}))
	require.NoError(t, s.SaveNutrition(ctx, r.ID, []model.NutritionFact{
		{Nutrient: "ENERC_KCAL", Label: "Energy", Amount: 260, Unit: "kcal", DailyValuePercent: &dv},
	}))
	facts, err = s.Nutrition(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, facts, 1, "save replaces")
	assert.Equal(t, r.ID, facts[0].RecipeID)
	assert.Equal(t, 260.0, facts[0].Amount)
	require.NotNil(t, facts[0].DailyValuePercent)
	assert.Equal(t, 12, *facts[0].DailyValuePercent)

	assert.ErrorIs(t, s.SaveNutrition(ctx, 777, nil), store.ErrNotFound)
}

func testSeed(t *testing.T, s store.Store) {
	ctx := context.Background()
	n, err := store.Seed(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, len(store.SeedRecipes), n)

	n, err = store.Seed(ctx, s)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice is a no-op")
}
