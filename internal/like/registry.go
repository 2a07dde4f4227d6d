package like

import (
	"context"
	"sync"

	"github.com/fairyhunter13/recipe-box-service/internal/obs"
)

// Registry owns the like state of every recipe button bound to it. Handlers
// are registered explicitly with Bind and dropped with Unbind.
//
// Toggles of the same recipe are not serialized: two overlapping requests
// each apply their own server answer, last one wins.
type Registry struct {
	client Toggler

	mu     sync.RWMutex
	states map[int64]State
}

// NewRegistry returns an empty registry that toggles through client.
func NewRegistry(client Toggler) *Registry {
	return &Registry{client: client, states: make(map[int64]State)}
}

// Bind registers a recipe with its initial state, replacing any earlier one.
func (r *Registry) Bind(recipeID int64, initial State) {
	initial.RecipeID = recipeID
	r.mu.Lock()
	r.states[recipeID] = initial
	r.mu.Unlock()
}

// Unbind forgets a recipe.
func (r *Registry) Unbind(recipeID int64) {
	r.mu.Lock()
	delete(r.states, recipeID)
	r.mu.Unlock()
}

// Get returns the current state of a bound recipe.
func (r *Registry) Get(recipeID int64) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[recipeID]
	return s, ok
}

// Toggle asks the server to flip the like and applies its answer. On
// failure, including an answer with an unknown status, the prior state is
// kept, the error is logged and returned. A recipe that is not bound starts
// from a zero state and is bound by the answer; a recipe unbound while its
// request was in flight stays unbound.
func (r *Registry) Toggle(ctx context.Context, recipeID int64) (State, error) {
	prev, wasBound := r.Get(recipeID)
	if !wasBound {
		prev = State{RecipeID: recipeID}
	}
	res, err := r.client.Toggle(ctx, recipeID)
	if err == nil {
		err = CheckResult(res)
	}
	if err != nil {
		obs.Logger.Warn("like_toggle_failed", "recipe_id", recipeID, "error", err.Error())
		return prev, err
	}
	next := Apply(prev, res, nil)
	r.mu.Lock()
	if _, bound := r.states[recipeID]; bound || !wasBound {
		r.states[recipeID] = next
	}
	r.mu.Unlock()
	obs.Logger.Debug("like_toggled", "recipe_id", recipeID, "liked", next.Liked, "likes_count", next.Count)
	return next, nil
}
