// Package nutrition turns a recipe's ingredient list into per-serving
// nutrition label facts using the Edamam nutrition analysis API.
package nutrition

import (
	"errors"
	"math"
	"sort"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
)

// ErrNoServings is returned when facts are requested for a recipe without a
// positive serving count.
var ErrNoServings = errors.New("recipe has no servings")

// Nutrient is one entry of an Edamam totals map.
type Nutrient struct {
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Analysis is the part of an Edamam nutrition-details response we use.
type Analysis struct {
	TotalNutrients map[string]Nutrient `json:"totalNutrients"`
	TotalDaily     map[string]Nutrient `json:"totalDaily"`
}

// nutrients Edamam reports that do not appear on a nutrition label
var nonLabel = map[string]bool{
	"CHOCDF.net": true, "WATER": true, "MG": true, "ZN": true, "P": true, "VITA_RAE": true,
	"VITC": true, "THIA": true, "RIBF": true, "NIA": true, "VITB6A": true, "FOLDFE": true,
	"FOLFD": true, "FOLAC": true, "VITB12": true, "TOCPHA": true, "VITK1": true,
}

// LabelOrder is the order nutrients appear on a label.
var LabelOrder = []string{
	"ENERC_KCAL", "FAT", "FASAT", "FATRN", "FAMS", "FAPU", "CHOLE", "NA",
	"CHOCDF", "FIBTG", "SUGAR", "PROCNT", "VITD", "CA", "FE", "K",
}

// Facts converts whole-recipe totals into per-serving label facts, rounded
// following FDA label rounding rules. Facts are returned in LabelOrder,
// followed by any other label nutrients sorted by code.
func Facts(servings int, a Analysis) ([]model.NutritionFact, error) {
	if servings <= 0 {
		return nil, ErrNoServings
	}
	out := make([]model.NutritionFact, 0, len(a.TotalNutrients))
	for code, n := range a.TotalNutrients {
		if nonLabel[code] {
			continue
		}
		f := model.NutritionFact{
			Nutrient: code,
			Label:    n.Label,
			Amount:   RoundFDA(code, n.Quantity/float64(servings)),
			Unit:     n.Unit,
		}
		if d, ok := a.TotalDaily[code]; ok {
			dv := int(d.Quantity)
			f.DailyValuePercent = &dv
		}
		out = append(out, f)
	}
	rank := make(map[string]int, len(LabelOrder))
	for i, c := range LabelOrder {
		rank[c] = i + 1
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank[out[i].Nutrient], rank[out[j].Nutrient]
		switch {
		case ri != 0 && rj != 0:
			return ri < rj
		case ri != 0:
			return true
		case rj != 0:
			return false
		}
		return out[i].Nutrient < out[j].Nutrient
	})
	return out, nil
}

// RoundFDA rounds a per-serving amount of the given nutrient the way a
// nutrition label does. Unknown nutrients are returned unchanged.
func RoundFDA(code string, v float64) float64 {
	switch code {
	case "ENERC_KCAL":
		switch {
		case v < 5:
			return 0
		case v <= 50:
			return nearest(v, 5)
		default:
			return nearest(v, 10)
		}
	case "FAT", "FASAT", "FATRN", "FAMS", "FAPU":
		switch {
		case v < 0.5:
			return 0
		case v < 5:
			return nearest(v, 0.5)
		default:
			return nearest(v, 1)
		}
	case "CHOLE":
		switch {
		case v < 2:
			return 0
		case v <= 5:
			return nearest(v, 1)
		default:
			return nearest(v, 5)
		}
	case "NA", "K":
		switch {
		case v < 5:
			return 0
		case v <= 140:
			return nearest(v, 5)
		default:
			return nearest(v, 10)
		}
	case "CHOCDF", "FIBTG", "SUGAR":
		switch {
		case v < 0.5:
			return 0
		case v < 1:
			return nearest(v, 0.1)
		default:
			return nearest(v, 1)
		}
	case "PROCNT":
		if v < 0.5 {
			return 0
		}
		return nearest(v, 1)
	case "FE", "VITD":
		return nearest(v, 0.1)
	case "CA":
		return nearest(v, 10)
	}
	return v
}

// nearest rounds v to a multiple of step, ties to even.
func nearest(v, step float64) float64 {
	r := math.RoundToEven(v/step) * step
	if step < 1 {
		// drop float noise such as 0.30000000000000004
		return math.Round(r*1e6) / 1e6
	}
	return r
}
