package nutrition

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FryingOilFactor is the share of frying oil assumed to end up in the food.
const FryingOilFactor = 0.15

var (
	oilWord     = regexp.MustCompile(`\boil\b`)
	bulkUnit    = regexp.MustCompile(`(?i)(quarts|quart|qts|qt|cups|cup)`)
	leadingNum  = regexp.MustCompile(`\d+(\.\d+)?`)
	spelledNums = map[string]float64{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	}
)

// ConvertOil adjusts ingredient lines before nutrition analysis. Oil
// measured in cups or quarts is almost always frying oil, most of which is
// discarded, so its leading quantity is scaled by FryingOilFactor. Dressings
// and vinaigrettes keep their oil. Blank lines are dropped.
func ConvertOil(title string, lines []string) []string {
	out := make([]string, 0, len(lines))
	t := strings.ToLower(title)
	keepOil := strings.Contains(t, "dressing") || strings.Contains(t, "vinaigrette")
	for _, line := range lines {
		line = strings.TrimSpace(strings.ReplaceAll(line, "&nbsp;", " "))
		if line == "" {
			continue
		}
		if !keepOil {
			line = convertOilLine(line)
		}
		out = append(out, line)
	}
	return out
}

func convertOilLine(line string) string {
	lower := strings.ToLower(line)
	if !oilWord.MatchString(lower) || !bulkUnit.MatchString(lower) {
		return line
	}
	fields := strings.Fields(line)
	first := fields[0]
	num := leadingNum.FindString(first)
	unit := bulkUnit.FindString(first)
	switch {
	case num != "":
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return line
		}
		fields[0] = formatQty(v * FryingOilFactor)
		if unit != "" {
			// "1cup" -> "0.15 cup"
			fields[0] += " " + unit
		}
	default:
		v, ok := spelledNums[strings.ToLower(first)]
		if !ok {
			return line
		}
		fields[0] = formatQty(v * FryingOilFactor)
	}
	return strings.Join(fields, " ")
}

func formatQty(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
