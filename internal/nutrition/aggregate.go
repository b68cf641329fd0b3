package nutrition

import (
	"fmt"
	"time"

	"github.com/saadjs/caltrack/internal/model"
)

type Totals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
	SugarG   float64 `json:"sugar_g"`
	SodiumMg float64 `json:"sodium_mg"`
}

func (t Totals) Add(o Totals) Totals {
	return Totals{
		Calories: t.Calories + o.Calories,
		ProteinG: t.ProteinG + o.ProteinG,
		CarbsG:   t.CarbsG + o.CarbsG,
		FatG:     t.FatG + o.FatG,
		FiberG:   t.FiberG + o.FiberG,
		SugarG:   t.SugarG + o.SugarG,
		SodiumMg: t.SodiumMg + o.SodiumMg,
	}
}

func (t Totals) Scale(factor float64) Totals {
	return Totals{
		Calories: t.Calories * factor,
		ProteinG: t.ProteinG * factor,
		CarbsG:   t.CarbsG * factor,
		FatG:     t.FatG * factor,
		FiberG:   t.FiberG * factor,
		SugarG:   t.SugarG * factor,
		SodiumMg: t.SodiumMg * factor,
	}
}

// Remaining is target minus consumed for each macro. Values go negative when over.
func (t Totals) Remaining(target Targets) Targets {
	return Targets{
		Calories: target.Calories - t.Calories,
		ProteinG: target.ProteinG - t.ProteinG,
		CarbsG:   target.CarbsG - t.CarbsG,
		FatG:     target.FatG - t.FatG,
	}
}

// DayFunc maps a timestamp to its day key. Keys must be normalized so that
// equal days compare equal with ==.
type DayFunc func(time.Time) time.Time

// LocalDay keys t by its calendar date in loc. The key is that date at
// midnight UTC: local midnight does not exist in zones that start daylight
// saving at 00:00, and an instant key there would fall on the previous day.
func LocalDay(loc *time.Location) DayFunc {
	if loc == nil {
		loc = time.Local
	}
	return func(t time.Time) time.Time {
		y, m, d := t.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// QuantityFromServings converts a serving count into the consumed amount
// stored on an entry.
func QuantityFromServings(servings, servingSize float64) float64 {
	return servings * servingSize
}

// EntryTotals scales per-serving nutrients to the consumed quantity.
func EntryTotals(e model.FoodEntry) (Totals, error) {
	if e.ServingSize == 0 {
		return Totals{}, fmt.Errorf("entry %q serving size: %w", e.Name, ErrDivisionByZero)
	}
	factor := e.Quantity / e.ServingSize
	return Totals{
		Calories: e.Calories * factor,
		ProteinG: e.ProteinG * factor,
		CarbsG:   e.CarbsG * factor,
		FatG:     e.FatG * factor,
		FiberG:   optional(e.FiberG) * factor,
		SugarG:   optional(e.SugarG) * factor,
		SodiumMg: optional(e.SodiumMg) * factor,
	}, nil
}

func optional(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func DailyTotals(entries []model.FoodEntry) (Totals, error) {
	var sum Totals
	for _, e := range entries {
		t, err := EntryTotals(e)
		if err != nil {
			return Totals{}, err
		}
		sum = sum.Add(t)
	}
	return sum, nil
}

// GroupByDay partitions entries by day. Days without entries have no key.
func GroupByDay(entries []model.FoodEntry, day DayFunc) map[time.Time][]model.FoodEntry {
	out := make(map[time.Time][]model.FoodEntry)
	for _, e := range entries {
		k := day(e.ConsumedAt)
		out[k] = append(out[k], e)
	}
	return out
}

type MealGroup struct {
	MealType model.MealType    `json:"meal_type"`
	Entries  []model.FoodEntry `json:"entries"`
}

// GroupByMeal returns the non-empty meal groups in breakfast, lunch, dinner,
// snack order. Entries keep their input order inside a group.
func GroupByMeal(entries []model.FoodEntry) []MealGroup {
	byMeal := make(map[model.MealType][]model.FoodEntry, len(model.MealTypes))
	for _, e := range entries {
		byMeal[e.MealType] = append(byMeal[e.MealType], e)
	}
	out := make([]MealGroup, 0, len(model.MealTypes))
	for _, m := range model.MealTypes {
		if len(byMeal[m]) == 0 {
			continue
		}
		out = append(out, MealGroup{MealType: m, Entries: byMeal[m]})
	}
	return out
}

// FilterRange keeps entries consumed in [from, to).
func FilterRange(entries []model.FoodEntry, from, to time.Time) []model.FoodEntry {
	out := make([]model.FoodEntry, 0, len(entries))
	for _, e := range entries {
		if e.ConsumedAt.Before(from) || !e.ConsumedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}
