package service

import (
	"database/sql"
	"time"

	"github.com/saadjs/caltrack/internal/nutrition"
)

type MealSummary struct {
	nutrition.MealGroup
	Totals nutrition.Totals `json:"totals"`
}

type DailySummary struct {
	Date       string            `json:"date"`
	HasProfile bool              `json:"has_profile"`
	Consumed   nutrition.Totals  `json:"consumed"`
	Targets    nutrition.Targets `json:"targets"`
	Remaining  nutrition.Targets `json:"remaining"`
	OnTrack    bool              `json:"on_track"`
	Meals      []MealSummary     `json:"meals"`
	EntryCount int               `json:"entry_count"`
	// Warning is set when the targets contain a negative macro.
	Warning string `json:"warning,omitempty"`
}

// TodaySummary aggregates the entries of the calendar day containing date.
// Without a profile the summary is measured against DefaultTargets.
func TodaySummary(db *sql.DB, s *Session, date time.Time, loc *time.Location) (*DailySummary, error) {
	start, end := DayBounds(date, loc)
	entries, err := EntriesBetween(db, start, end)
	if err != nil {
		return nil, err
	}
	consumed, err := nutrition.DailyTotals(entries)
	if err != nil {
		return nil, err
	}
	tolerance, err := s.Tolerance()
	if err != nil {
		return nil, err
	}
	targets, hasProfile := s.Targets()

	out := &DailySummary{
		Date:       start.Format("2006-01-02"),
		HasProfile: hasProfile,
		Consumed:   consumed,
		Targets:    targets,
		Remaining:  consumed.Remaining(targets),
		OnTrack:    len(entries) > 0 && nutrition.OnTrack(consumed.Calories, targets.Calories, tolerance),
		EntryCount: len(entries),
		Meals:      make([]MealSummary, 0, 4),
	}
	if targets.HasNegativeMacro() {
		out.Warning = "calorie target is too low to cover protein and fat; carb target is negative"
	}
	// Meal groups show entries in the order they were eaten.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	for _, g := range nutrition.GroupByMeal(entries) {
		totals, err := nutrition.DailyTotals(g.Entries)
		if err != nil {
			return nil, err
		}
		out.Meals = append(out.Meals, MealSummary{MealGroup: g, Totals: totals})
	}
	return out, nil
}
