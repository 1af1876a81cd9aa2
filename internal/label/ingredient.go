package label

import (
	"regexp"
	"strings"
)

var (
	parenGroupRe      = regexp.MustCompile(`\(([^)]+)\)`)
	ingredientSplitRe = regexp.MustCompile(`[,·\s]+`)
)

// ExtractIngredients pulls active-ingredient tokens out of a product display
// name. Korean product names conventionally carry the ingredients in
// parentheses, e.g. "타이레놀정500밀리그램(아세트아미노펜)". Each parenthesized
// group is split on comma, middle-dot, or whitespace runs; empty tokens are
// dropped. Tokens repeated across groups are kept as separate entries, dedup
// is the caller's concern. A name without parentheses yields nil.
func ExtractIngredients(itemName string) []string {
	var ingredients []string
	for _, group := range parenGroupRe.FindAllStringSubmatch(itemName, -1) {
		for _, part := range ingredientSplitRe.Split(group[1], -1) {
			if token := strings.TrimSpace(part); token != "" {
				ingredients = append(ingredients, token)
			}
		}
	}
	return ingredients
}
