// Package like holds the client side of the like toggle: the per-recipe
// like state, the pure function that folds a server answer into it, and the
// HTTP client that asks the server to flip the like.
package like

import (
	"errors"
	"fmt"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
)

// ErrBadPayload is returned for a server answer that cannot be applied: an
// unknown status or a negative count.
var ErrBadPayload = errors.New("unusable like response")

// Glyphs shown on the like button.
const (
	GlyphLiked   = "🧡"
	GlyphUnliked = "💛"
)

// State is what the like button shows for one recipe.
type State struct {
	RecipeID int64 `json:"recipe_id"`
	Liked    bool  `json:"liked"`
	Count    int   `json:"likes_count"`
}

// CheckResult reports whether res can be applied to a like state.
func CheckResult(res model.LikeResult) error {
	if res.Status != model.StatusLiked && res.Status != model.StatusUnliked {
		return fmt.Errorf("%w: status %q", ErrBadPayload, res.Status)
	}
	if res.LikesCount < 0 {
		return fmt.Errorf("%w: likes_count %d", ErrBadPayload, res.LikesCount)
	}
	return nil
}

// Apply folds the outcome of a toggle request into prev. A failed request or
// an answer with an unknown status leaves prev unchanged; there is no
// optimistic update.
func Apply(prev State, res model.LikeResult, err error) State {
	if err != nil || CheckResult(res) != nil {
		return prev
	}
	next := prev
	next.Liked = res.Status == model.StatusLiked
	next.Count = res.LikesCount
	return next
}

// Glyph returns the button glyph for s.
func Glyph(s State) string {
	if s.Liked {
		return GlyphLiked
	}
	return GlyphUnliked
}
