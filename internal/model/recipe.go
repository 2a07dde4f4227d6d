package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrValidation marks a recipe that fails the form rules.
var ErrValidation = errors.New("validation error")

// Recipe form limits.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 400
	MinServings       = 1
	MaxServings       = 10
	MaxCookHours      = 48
	MaxCookMinutes    = 60
)

// Diets lists the accepted diet tags and their display names.
var Diets = map[string]string{
	"vegetarian": "Vegetarian",
	"vegan":      "Vegan",
	"gf":         "Gluten-free",
	"keto":       "Keto",
	"lc":         "Low-carb",
}

// Validate checks the recipe against the recipe form rules. The returned
// error wraps ErrValidation.
func (r *Recipe) Validate() error {
	title := strings.TrimSpace(r.Title)
	switch {
	case title == "":
		return invalid("title is required")
	case utf8.RuneCountInString(title) > MaxTitleLen:
		return invalid("title must be at most %d characters", MaxTitleLen)
	case utf8.RuneCountInString(r.Description) > MaxDescriptionLen:
		return invalid("description must be at most %d characters", MaxDescriptionLen)
	case len(r.Ingredients) == 0:
		return invalid("every recipe needs some ingredients")
	case strings.TrimSpace(r.Instructions) == "":
		return invalid("instructions are required")
	case r.Servings < MinServings || r.Servings > MaxServings:
		return invalid("servings must be between %d and %d", MinServings, MaxServings)
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return invalid("ingredient %d has no name", i+1)
		}
		if !(ing.Amount > 0) {
			return invalid("ingredient %q must have a positive amount", ing.Name)
		}
	}
	for _, d := range r.Diets {
		if _, ok := Diets[d]; !ok {
			return invalid("unknown diet %q", d)
		}
	}
	if r.ImageURL != "" {
		u, err := url.Parse(r.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("image_url must be an http(s) URL")
		}
	}
	return nil
}

// CookTime formats a cooking duration the way recipes display it, for
// example "1 hr 20 mins". Zero parts are omitted.
func CookTime(hours, mins int) (string, error) {
	if hours < 0 || hours > MaxCookHours {
		return "", invalid("hours must be between 0 and %d", MaxCookHours)
	}
	if mins < 0 || mins > MaxCookMinutes {
		return "", invalid("minutes must be between 1 and %d", MaxCookMinutes)
	}
	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hr", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%d mins", mins))
	}
	return strings.Join(parts, " "), nil
}

// IngredientLines renders ingredients as "amount unit name" lines.
func (r *Recipe) IngredientLines() []string {
	lines := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		parts := []string{trimFloat(ing.Amount)}
		if ing.Unit != "" {
			parts = append(parts, ing.Unit)
		}
		parts = append(parts, ing.Name)
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.3f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
