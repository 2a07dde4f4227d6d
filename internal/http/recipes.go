package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/obs"
	"github.com/fairyhunter13/recipe-box-service/internal/search"
	"github.com/fairyhunter13/recipe-box-service/internal/serving"
)

// createRequest is the body of POST /recipes. Cooking time is given as
// hours and minutes and stored in display form.
type createRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Ingredients  []model.Ingredient `json:"ingredients"`
	Instructions string             `json:"instructions"`
	Servings     int                `json:"servings"`
	CookHours    int                `json:"cook_hours"`
	CookMinutes  int                `json:"cook_minutes"`
	Diets        []string           `json:"diets"`
	ImageURL     string             `json:"image_url"`
}

// recipeView is a recipe with the caller's like state.
type recipeView struct {
	model.Recipe
	LikesCount int  `json:"likes_count"`
	Liked      bool `json:"liked"`
}

type scaleResponse struct {
	RecipeID     int64            `json:"recipe_id"`
	BaseServings int              `json:"base_servings"`
	Servings     int              `json:"servings"`
	Ingredients  []serving.Scaled `json:"ingredients"`
}

type nutritionResponse struct {
	RecipeID int64                 `json:"recipe_id"`
	Servings int                   `json:"servings"`
	Status   string                `json:"status"`
	Facts    []model.NutritionFact `json:"facts"`
}

func (a *App) listRecipesHandler(w http.ResponseWriter, r *http.Request) {
	rs, err := a.Store.ListRecipes(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (a *App) createRecipeHandler(w http.ResponseWriter, r *http.Request) {
	if a.closing.Load() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return
	}
	var req createRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	cook, err := model.CookTime(req.CookHours, req.CookMinutes)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	rec := model.Recipe{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Servings:     req.Servings,
		TimeToCook:   cook,
		Diets:        req.Diets,
		ImageURL:     req.ImageURL,
	}
	if err := rec.Validate(); err != nil {
		writeErr(w, r, err)
		return
	}
	created, err := a.Store.CreateRecipe(r.Context(), rec)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	recipesCreated.Add(1)
	attrs := []any{
		"request_id", RequestIDFromContext(r.Context()),
		"recipe_id", created.ID,
		"title", created.Title,
	}
	if a.Manager != nil {
		if job, ok := a.Manager.Submit(created.ID); ok {
			attrs = append(attrs, "nutrition_sequence", job.Sequence)
		}
	}
	obs.Logger.Info("recipe_created", attrs...)
	w.Header().Set("Location", "/recipes/"+strconv.FormatInt(created.ID, 10))
	writeJSON(w, http.StatusCreated, created)
}

func (a *App) getRecipeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r, "id")
	if !ok {
		return
	}
	view, err := a.recipeView(r, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *App) recipeView(r *http.Request, id int64) (recipeView, error) {
	ctx := r.Context()
	rec, err := a.Store.GetRecipe(ctx, id)
	if err != nil {
		return recipeView{}, err
	}
	count, err := a.Store.LikeCount(ctx, id)
	if err != nil {
		return recipeView{}, err
	}
	liked, err := a.Store.LikedBy(ctx, VisitorFromContext(ctx), id)
	if err != nil {
		return recipeView{}, err
	}
	return recipeView{Recipe: rec, LikesCount: count, Liked: liked}, nil
}

func (a *App) deleteRecipeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r, "id")
	if !ok {
		return
	}
	if err := a.Store.DeleteRecipe(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	obs.Logger.Info("recipe_deleted", "request_id", RequestIDFromContext(r.Context()), "recipe_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// servingsParam reads ?servings=N, falling back to def when absent.
func servingsParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("servings")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, serving.ErrOutOfRange
	}
	return n, nil
}

// servingState builds the servings control for a recipe at the requested
// servings. A recipe whose base does not fit the configured control is a
// server-side configuration problem, not a bad request.
func (a *App) servingState(r *http.Request, rec model.Recipe) (*serving.State, error) {
	st, err := serving.NewState(rec.Servings, a.Cfg.ServingsMin, a.Cfg.ServingsMax)
	if err != nil {
		return nil, fmt.Errorf("servings control misconfigured: %v", err)
	}
	n, err := servingsParam(r, rec.Servings)
	if err != nil {
		return nil, err
	}
	if err := st.Set(n); err != nil {
		return nil, err
	}
	return st, nil
}

func (a *App) scaleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r, "id")
	if !ok {
		return
	}
	rec, err := a.Store.GetRecipe(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	st, err := a.servingState(r, rec)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scaleResponse{
		RecipeID:     rec.ID,
		BaseServings: st.Base(),
		Servings:     st.Current(),
		Ingredients:  serving.ScaleAll(rec.Ingredients, st),
	})
}

func (a *App) nutritionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r, "id")
	if !ok {
		return
	}
	n, err := servingsParam(r, 1)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if n < a.Cfg.ServingsMin || n > a.Cfg.ServingsMax {
		WriteJSONError(w, http.StatusBadRequest, "out_of_range", "servings out of range")
		return
	}
	facts, err := a.Store.Nutrition(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	status := "ready"
	if len(facts) == 0 {
		status = "pending"
	}
	// stored facts are per serving
	for i := range facts {
		facts[i].Amount = serving.Scale(facts[i].Amount, 1, n)
	}
	if facts == nil {
		facts = []model.NutritionFact{}
	}
	writeJSON(w, http.StatusOK, nutritionResponse{RecipeID: id, Servings: n, Status: status, Facts: facts})
}

func (a *App) searchHandler(w http.ResponseWriter, r *http.Request) {
	terms := search.Terms(r.URL.Query().Get("query"))
	out := []model.Recipe{}
	if len(terms) > 0 {
		rs, err := a.Store.SearchRecipes(r.Context(), terms)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if rs != nil {
			out = rs
		}
	}
	writeJSON(w, http.StatusOK, out)
}
