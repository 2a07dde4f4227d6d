package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/store"
)

func TestRoundFDA(t *testing.T) {
	cases := []struct {
		code string
		in   float64
		want float64
	}{
		{"ENERC_KCAL", 4.9, 0},
		{"ENERC_KCAL", 23, 25},
		{"ENERC_KCAL", 236, 240},
		{"FAT", 0.4, 0},
		{"FAT", 2.3, 2.5},
		{"FAT", 7.6, 8},
		{"CHOLE", 1.5, 0},
		{"CHOLE", 3.4, 3},
		{"CHOLE", 17, 15},
		{"NA", 4, 0},
		{"NA", 67, 65},
		{"NA", 333, 330},
		{"SUGAR", 0.3, 0},
		{"SUGAR", 0.74, 0.7},
		{"SUGAR", 3.6, 4},
		{"PROCNT", 0.2, 0},
		{"PROCNT", 12.4, 12},
		{"FE", 2.26, 2.3},
		{"CA", 123, 120},
		{"XYZ", 1.234, 1.234},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoundFDA(tc.code, tc.in), "%s %v", tc.code, tc.in)
	}
}

func TestFacts(t *testing.T) {
	a := Analysis{
		TotalNutrients: map[string]Nutrient{
			"PROCNT":     {Label: "Protein", Quantity: 40, Unit: "g"},
			"ENERC_KCAL": {Label: "Energy", Quantity: 1040, Unit: "kcal"},
			"WATER":      {Label: "Water", Quantity: 500, Unit: "g"},
			"FAT":        {Label: "Fat", Quantity: 30, Unit: "g"},
		},
		TotalDaily: map[string]Nutrient{
			"ENERC_KCAL": {Label: "Energy", Quantity: 50.7, Unit: "%"},
		},
	}
	facts, err := Facts(4, a)
	require.NoError(t, err)
	require.Len(t, facts, 3, "WATER is not a label nutrient")
	assert.Equal(t, "ENERC_KCAL", facts[0].Nutrient)
	assert.Equal(t, 260.0, facts[0].Amount)
	require.NotNil(t, facts[0].DailyValuePercent)
	assert.Equal(t, 50, *facts[0].DailyValuePercent)
	assert.Equal(t, "FAT", facts[1].Nutrient)
	assert.Equal(t, 8.0, facts[1].Amount)
	assert.Equal(t, "PROCNT", facts[2].Nutrient)
	assert.Equal(t, 10.0, facts[2].Amount)
	assert.Nil(t, facts[2].DailyValuePercent)

	_, err = Facts(0, a)
	assert.ErrorIs(t, err, ErrNoServings)
}

func TestConvertOil(t *testing.T) {
	in := []string{
		"4 cups vegetable oil",
		"1cup canola oil",
		"two quarts peanut oil",
		"2 tablespoons olive oil",
		"3 cups boiling water",
		"&nbsp;",
		"",
		"1 lb chicken",
	}
	got := ConvertOil("Fried Chicken", in)
	assert.Equal(t, []string{
		"0.6 cups vegetable oil",
		"0.15 cup canola oil",
		"0.3 quarts peanut oil",
		"2 tablespoons olive oil",
		"3 cups boiling water",
		"1 lb chicken",
	}, got)

	dressing := ConvertOil("Lemon Vinaigrette", []string{"1 cup olive oil", " "})
	assert.Equal(t, []string{"1 cup olive oil"}, dressing)
}

func TestEdamamClient_Analyze(t *testing.T) {
	var got edamamRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "id-1", r.URL.Query().Get("app_id"))
		assert.Equal(t, "key-1", r.URL.Query().Get("app_key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalNutrients":{"FAT":{"label":"Fat","quantity":12.5,"unit":"g"}},"totalDaily":{}}`))
	}))
	defer srv.Close()

	c := NewEdamamClient(EdamamConfig{Endpoint: srv.URL, AppID: "id-1", AppKey: "key-1", RequestsPerSecond: 100})
	a, err := c.Analyze(context.Background(), "Toast", []string{"1 slice bread"})
	require.NoError(t, err)
	assert.Equal(t, "Toast", got.Title)
	assert.Equal(t, []string{"1 slice bread"}, got.Ingr)
	assert.Equal(t, 12.5, a.TotalNutrients["FAT"].Quantity)
}

func TestEdamamClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "low quality", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewEdamamClient(EdamamConfig{Endpoint: srv.URL, RequestsPerSecond: 100})
	_, err := c.Analyze(context.Background(), "x", []string{"y"})
	require.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Contains(t, err.Error(), "422")
}

type fakeAnalyzer struct {
	lines []string
	err   error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, lines []string) (Analysis, error) {
	f.lines = lines
	if f.err != nil {
		return Analysis{}, f.err
	}
	return Analysis{TotalNutrients: map[string]Nutrient{
		"PROCNT": {Label: "Protein", Quantity: 20, Unit: "g"},
	}}, nil
}

func TestProcessor(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	r, err := st.CreateRecipe(ctx, model.Recipe{
		Title:        "Deep Fried Tofu",
		Ingredients:  []model.Ingredient{{Name: "tofu", Amount: 1, Unit: "block"}, {Name: "vegetable oil", Amount: 2, Unit: "cups"}},
		Instructions: "Fry.",
		Servings:     2,
	})
	require.NoError(t, err)

	fa := &fakeAnalyzer{}
	p := &Processor{Store: st, Analyzer: fa}
	require.NoError(t, p.Process(ctx, model.NutritionJob{RecipeID: r.ID, Sequence: 1}))
	assert.Equal(t, []string{"1 block tofu", "0.3 cups vegetable oil"}, fa.lines)

	facts, err := st.Nutrition(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, 10.0, facts[0].Amount)

	err = p.Process(ctx, model.NutritionJob{RecipeID: 999})
	assert.ErrorIs(t, err, store.ErrNotFound)

	boom := errors.New("boom")
	p.Analyzer = &fakeAnalyzer{err: boom}
	assert.ErrorIs(t, p.Process(ctx, model.NutritionJob{RecipeID: r.ID}), boom)
}
