// Package serving rescales recipe ingredient amounts to a chosen number of
// servings.
//
// Amounts are always recomputed from the recipe's base amount, so repeated
// rescaling never compounds display rounding.
package serving

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
)

// DisplayPrecision is the number of fractional digits shown for an amount.
const DisplayPrecision = 2

// Default bounds of the servings control.
const (
	DefaultMin = model.MinServings
	DefaultMax = model.MaxServings
)

var (
	// ErrZeroBaseServings is returned when a recipe claims zero (or fewer)
	// base servings. Scaling from it would divide by zero.
	ErrZeroBaseServings = errors.New("base servings must be positive")
	// ErrOutOfRange is returned for a servings value outside the control bounds.
	ErrOutOfRange = errors.New("servings out of range")
)

// Scale returns baseAmount proportionally rescaled from baseServings to
// newServings. baseServings must be positive; NewState enforces that.
func Scale(baseAmount float64, baseServings, newServings int) float64 {
	return baseAmount * float64(newServings) / float64(baseServings)
}

// Format renders an amount with DisplayPrecision fractional digits, the way
// the page script's toFixed does: the exact binary value is rounded and a
// tie goes away from zero, so 0.125 shows as "0.13".
func Format(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return strconv.FormatFloat(amount, 'f', DisplayPrecision, 64)
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	r := new(big.Rat).SetFloat64(amount)
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(DisplayPrecision), nil)))
	r.Add(r, big.NewRat(1, 2))
	digits := new(big.Int).Quo(r.Num(), r.Denom()).String()
	if len(digits) <= DisplayPrecision {
		digits = strings.Repeat("0", DisplayPrecision-len(digits)+1) + digits
	}
	cut := len(digits) - DisplayPrecision
	return sign + digits[:cut] + "." + digits[cut:]
}

// State is the servings control of one recipe view.
type State struct {
	base    int
	current int
	min     int
	max     int
}

// NewState captures the base servings of a recipe. The current value starts
// at base.
func NewState(base, min, max int) (*State, error) {
	if base <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrZeroBaseServings, base)
	}
	if min <= 0 || max < min {
		return nil, fmt.Errorf("%w: invalid bounds [%d, %d]", ErrOutOfRange, min, max)
	}
	if base < min || base > max {
		return nil, fmt.Errorf("%w: base %d not in [%d, %d]", ErrOutOfRange, base, min, max)
	}
	return &State{base: base, current: base, min: min, max: max}, nil
}

// Base returns the servings the recipe was written for.
func (s *State) Base() int { return s.base }

// Current returns the selected servings.
func (s *State) Current() int { return s.current }

// Bounds returns the control's min and max.
func (s *State) Bounds() (min, max int) { return s.min, s.max }

// Set selects a new servings value.
func (s *State) Set(n int) error {
	if n < s.min || n > s.max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, n, s.min, s.max)
	}
	s.current = n
	return nil
}

// Scaled is an ingredient rescaled to the current servings.
type Scaled struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit,omitempty"`
	Base    float64 `json:"base_amount"`
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
}

// ScaleAll rescales every ingredient to the state's current servings,
// preserving order.
func ScaleAll(ings []model.Ingredient, st *State) []Scaled {
	out := make([]Scaled, len(ings))
	for i, ing := range ings {
		amt := Scale(ing.Amount, st.base, st.current)
		out[i] = Scaled{
			Name:    ing.Name,
			Unit:    ing.Unit,
			Base:    ing.Amount,
			Amount:  amt,
			Display: Format(amt),
		}
	}
	return out
}
