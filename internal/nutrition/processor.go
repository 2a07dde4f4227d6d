package nutrition

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/obs"
	"github.com/fairyhunter13/recipe-box-service/internal/store"
)

// Processor handles nutrition jobs: load the recipe, analyze it and store
// the per-serving facts.
type Processor struct {
	Store    store.Store
	Analyzer Analyzer
}

// Process runs one job.
func (p *Processor) Process(ctx context.Context, job model.NutritionJob) error {
	r, err := p.Store.GetRecipe(ctx, job.RecipeID)
	if err != nil {
		return fmt.Errorf("loading recipe %d: %w", job.RecipeID, err)
	}
	lines := ConvertOil(r.Title, r.IngredientLines())
	a, err := p.Analyzer.Analyze(ctx, r.Title, lines)
	if err != nil {
		return fmt.Errorf("analyzing recipe %d: %w", r.ID, err)
	}
	facts, err := Facts(r.Servings, a)
	if err != nil {
		return fmt.Errorf("computing facts for recipe %d: %w", r.ID, err)
	}
	if err := p.Store.SaveNutrition(ctx, r.ID, facts); err != nil {
		return fmt.Errorf("saving nutrition for recipe %d: %w", r.ID, err)
	}
	obs.Logger.Info("nutrition_saved", "recipe_id", r.ID, "sequence", job.Sequence, "facts", len(facts))
	return nil
}
