package service

import (
	"strings"

	"github.com/saadjs/caltrack/internal/model"
)

type unitKind string

const (
	unitKindMass   unitKind = "mass"
	unitKindVolume unitKind = "volume"
)

type unitDef struct {
	kind       unitKind
	toBaseUnit float64
}

var unitTable = map[string]unitDef{
	// mass (base = g)
	"mg":  {kind: unitKindMass, toBaseUnit: 0.001},
	"g":   {kind: unitKindMass, toBaseUnit: 1},
	"kg":  {kind: unitKindMass, toBaseUnit: 1000},
	"oz":  {kind: unitKindMass, toBaseUnit: 28.349523125},
	"lb":  {kind: unitKindMass, toBaseUnit: 453.59237},
	"lbs": {kind: unitKindMass, toBaseUnit: 453.59237},

	// volume (base = ml)
	"ml":    {kind: unitKindVolume, toBaseUnit: 1},
	"l":     {kind: unitKindVolume, toBaseUnit: 1000},
	"tsp":   {kind: unitKindVolume, toBaseUnit: 4.92892159375},
	"tbsp":  {kind: unitKindVolume, toBaseUnit: 14.78676478125},
	"cup":   {kind: unitKindVolume, toBaseUnit: 236.5882365},
	"fl-oz": {kind: unitKindVolume, toBaseUnit: 29.5735295625},
}

// ConvertAmount converts value between two units. Crossing mass and volume
// needs a density in g/ml. Identical unit strings pass through unchanged, so
// non-metric units like "serving" still work when both sides agree.
func ConvertAmount(value float64, fromUnit, toUnit string, densityGML float64) (float64, error) {
	if err := validatePositiveFloat("amount", value); err != nil {
		return 0, err
	}
	if strings.EqualFold(strings.TrimSpace(fromUnit), strings.TrimSpace(toUnit)) {
		return value, nil
	}
	from, ok := resolveUnit(fromUnit)
	if !ok {
		return 0, invalidf("unsupported unit %q", fromUnit)
	}
	to, ok := resolveUnit(toUnit)
	if !ok {
		return 0, invalidf("unsupported unit %q", toUnit)
	}
	if from.kind == to.kind {
		return value * from.toBaseUnit / to.toBaseUnit, nil
	}
	if densityGML <= 0 {
		return 0, invalidf("density-g-per-ml must be > 0 for mass/volume conversion")
	}

	var grams float64
	switch from.kind {
	case unitKindMass:
		grams = value * from.toBaseUnit
	case unitKindVolume:
		grams = value * from.toBaseUnit * densityGML
	}
	if to.kind == unitKindMass {
		return grams / to.toBaseUnit, nil
	}
	return grams / densityGML / to.toBaseUnit, nil
}

// QuantityInServingUnit converts an amount eaten into the entry's serving
// unit, which is how Quantity is stored.
func QuantityInServingUnit(amount float64, unit, servingUnit string, densityGML float64) (float64, error) {
	if strings.TrimSpace(unit) == "" {
		unit = servingUnit
	}
	return ConvertAmount(amount, unit, servingUnit, densityGML)
}

// IngredientFromFood scales a food's reference-serving nutrients to amount
// in unit, producing ingredient totals.
func IngredientFromFood(food model.FoodItem, amount float64, unit string, densityGML float64) (IngredientInput, error) {
	if err := validatePositiveFloat("food serving size", food.ServingSize); err != nil {
		return IngredientInput{}, err
	}
	if strings.TrimSpace(unit) == "" {
		unit = food.ServingUnit
	}
	inRef, err := ConvertAmount(amount, unit, food.ServingUnit, densityGML)
	if err != nil {
		return IngredientInput{}, err
	}
	factor := inRef / food.ServingSize
	return IngredientInput{
		Name:     food.Label,
		Amount:   amount,
		Unit:     strings.TrimSpace(unit),
		Calories: food.Calories * factor,
		ProteinG: food.ProteinG * factor,
		CarbsG:   food.CarbsG * factor,
		FatG:     food.FatG * factor,
	}, nil
}

func resolveUnit(unit string) (unitDef, bool) {
	def, ok := unitTable[strings.ToLower(strings.TrimSpace(unit))]
	return def, ok
}
