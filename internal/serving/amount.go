package serving

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"
)

// ErrInvalidAmount is returned by ParseAmount for anything that is not a
// positive finite quantity.
var ErrInvalidAmount = errors.New("invalid amount")

var vulgarFractions = strings.NewReplacer(
	"½", " 1/2",
	"⅓", " 1/3",
	"⅔", " 2/3",
	"¼", " 1/4",
	"¾", " 3/4",
	"⅕", " 1/5",
	"⅛", " 1/8",
	"⅜", " 3/8",
	"⅝", " 5/8",
	"⅞", " 7/8",
	"⁄", "/",
)

// plainNumber is a decimal or a fraction of integers, without base prefixes,
// exponents or leading zeros.
var plainNumber = regexp.MustCompile(`^(?:(?:0|[1-9][0-9]*)(?:\.[0-9]+)?|\.[0-9]+|(?:0|[1-9][0-9]*)/(?:0|[1-9][0-9]*))$`)

// ParseAmount parses a base amount as written in recipe markup: "2",
// "1.5", "1/2", "1 1/2" or "1½".
func ParseAmount(s string) (float64, error) {
	fields := strings.Fields(vulgarFractions.Replace(s))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	one := big.NewRat(1, 1)
	sum := new(big.Rat)
	for i, f := range fields {
		if !plainNumber.MatchString(f) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		r, ok := new(big.Rat).SetString(f)
		if !ok || r.Sign() < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		// a two-part amount must be "whole proper-fraction"
		if len(fields) == 2 {
			if i == 0 && !r.IsInt() {
				return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
			}
			if i == 1 && (r.IsInt() || r.Cmp(one) >= 0) {
				return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
			}
		}
		sum.Add(sum, r)
	}
	v, _ := sum.Float64()
	if v <= 0 || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}
