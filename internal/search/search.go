// Package search turns a free-text query into match terms.
package search

import (
	"regexp"
	"strings"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
)

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9\- ]`)

// Terms strips everything but letters, digits, hyphens and spaces from the
// query and splits it on whitespace.
func Terms(query string) []string {
	return strings.Fields(disallowed.ReplaceAllString(query, ""))
}

// Matches reports whether term occurs, case-insensitively, in the recipe's
// title, an ingredient name or the instructions.
func Matches(r model.Recipe, term string) bool {
	t := strings.ToLower(term)
	if strings.Contains(strings.ToLower(r.Title), t) || strings.Contains(strings.ToLower(r.Instructions), t) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), t) {
			return true
		}
	}
	return false
}
