package nutrition

import (
	"fmt"

	"github.com/saadjs/caltrack/internal/model"
)

// RecipeTotals sums the ingredient nutrients. Ingredient values are already
// totals for the listed amount.
func RecipeTotals(r model.Recipe) Totals {
	var sum Totals
	for _, ing := range r.Ingredients {
		sum.Calories += ing.Calories
		sum.ProteinG += ing.ProteinG
		sum.CarbsG += ing.CarbsG
		sum.FatG += ing.FatG
	}
	return sum
}

func RecipePerServing(r model.Recipe) (Totals, error) {
	if r.Servings <= 0 {
		return Totals{}, fmt.Errorf("recipe %q servings: %w", r.Name, ErrDivisionByZero)
	}
	return RecipeTotals(r).Scale(1 / float64(r.Servings)), nil
}
