package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/search"
)

var _ Store = (*Memory)(nil)

type recipeState struct {
	r         model.Recipe
	likes     map[string]struct{}
	nutrition []model.NutritionFact
}

// Memory is a map-backed Store. Contents are lost on exit.
type Memory struct {
	mu     sync.RWMutex
	m      map[int64]*recipeState
	nextID int64
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{m: make(map[int64]*recipeState), now: time.Now}
}

func (s *Memory) CreateRecipe(_ context.Context, r model.Recipe) (model.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.m {
		if st.r.Title == r.Title {
			return model.Recipe{}, ErrDuplicateTitle
		}
	}
	s.nextID++
	r.ID = s.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	r = cloneRecipe(r)
	s.m[r.ID] = &recipeState{r: r, likes: make(map[string]struct{})}
	return cloneRecipe(r), nil
}

func (s *Memory) GetRecipe(_ context.Context, id int64) (model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[id]
	if !ok {
		return model.Recipe{}, ErrNotFound
	}
	return cloneRecipe(st.r), nil
}

func (s *Memory) ListRecipes(_ context.Context) ([]model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Recipe, 0, len(s.m))
	for _, st := range s.m {
		out = append(out, cloneRecipe(st.r))
	}
	newestFirst(out)
	return out, nil
}

func (s *Memory) DeleteRecipe(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *Memory) SearchRecipes(_ context.Context, terms []string) ([]model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Recipe
	for _, st := range s.m {
		for _, term := range terms {
			if search.Matches(st.r, term) {
				out = append(out, cloneRecipe(st.r))
				break
			}
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *Memory) ToggleLike(_ context.Context, visitorID string, recipeID int64) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[recipeID]
	if !ok {
		return false, 0, ErrNotFound
	}
	if _, liked := st.likes[visitorID]; liked {
		delete(st.likes, visitorID)
		return false, len(st.likes), nil
	}
	st.likes[visitorID] = struct{}{}
	return true, len(st.likes), nil
}

func (s *Memory) LikeCount(_ context.Context, recipeID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[recipeID]
	if !ok {
		return 0, ErrNotFound
	}
	return len(st.likes), nil
}

func (s *Memory) LikedBy(_ context.Context, visitorID string, recipeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[recipeID]
	if !ok {
		return false, ErrNotFound
	}
	_, liked := st.likes[visitorID]
	return liked, nil
}

func (s *Memory) SaveNutrition(_ context.Context, recipeID int64, facts []model.NutritionFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[recipeID]
	if !ok {
		return ErrNotFound
	}
	st.nutrition = slices.Clone(facts)
	for i := range st.nutrition {
		st.nutrition[i].RecipeID = recipeID
	}
	return nil
}

func (s *Memory) Nutrition(_ context.Context, recipeID int64) ([]model.NutritionFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[recipeID]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(st.nutrition), nil
}

func (s *Memory) Close() error { return nil }

func cloneRecipe(r model.Recipe) model.Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	r.Diets = slices.Clone(r.Diets)
	return r
}

// IDs are assigned in creation order, so a higher ID is newer.
func newestFirst(rs []model.Recipe) {
	slices.SortFunc(rs, func(a, b model.Recipe) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
