package service

import (
	"database/sql"
	"time"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/nutrition"
)

type InsightsOptions struct {
	Range    nutrition.TimeRange
	Metric   nutrition.Metric
	Now      time.Time
	Location *time.Location
}

type DayTotal struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
}

type InsightsReport struct {
	Range           nutrition.TimeRange     `json:"range"`
	Metric          nutrition.Metric        `json:"metric"`
	From            string                  `json:"from"`
	To              string                  `json:"to"`
	Series          []nutrition.SeriesPoint `json:"series"`
	AveragePerDay   nutrition.Totals        `json:"average_per_day"`
	DaysLogged      int                     `json:"days_logged"`
	DaysOnTrack     int                     `json:"days_on_track"`
	CalorieTarget   float64                 `json:"calorie_target"`
	Tolerance       float64                 `json:"tolerance"`
	CurrentStreak   int                     `json:"current_streak"`
	FavoriteFood    string                  `json:"favorite_food,omitempty"`
	FavoriteCount   int                     `json:"favorite_count,omitempty"`
	ProteinPerEntry float64                 `json:"protein_per_entry"`
	ProteinChampion bool                    `json:"protein_champion"`
	HighestDay      *DayTotal               `json:"highest_day,omitempty"`
	LowestDay       *DayTotal               `json:"lowest_day,omitempty"`
}

// Insights builds the trend report for the range ending at opts.Now. The
// streak is computed over all history, not just the range.
func Insights(db *sql.DB, s *Session, opts InsightsOptions) (*InsightsReport, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Range == "" {
		opts.Range = nutrition.RangeWeek
	}
	if opts.Metric == "" {
		opts.Metric = nutrition.MetricCalories
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	day := nutrition.LocalDay(loc)
	from := opts.Range.Start(opts.Now)

	entries, err := EntriesBetween(db, from, opts.Now.Add(time.Second))
	if err != nil {
		return nil, err
	}
	series, err := nutrition.BuildSeries(entries, opts.Metric, from, opts.Now, day)
	if err != nil {
		return nil, err
	}
	avg, err := nutrition.AveragePerDay(entries, day)
	if err != nil {
		return nil, err
	}
	tolerance, err := s.Tolerance()
	if err != nil {
		return nil, err
	}
	targets, _ := s.Targets()
	onTrack, err := nutrition.DaysOnTrack(entries, targets.Calories, tolerance, day)
	if err != nil {
		return nil, err
	}
	protein, err := nutrition.AverageProteinPerEntry(entries)
	if err != nil {
		return nil, err
	}
	history, err := EntriesBetween(db, time.Time{}, opts.Now.Add(time.Second))
	if err != nil {
		return nil, err
	}

	report := &InsightsReport{
		Range:           opts.Range,
		Metric:          opts.Metric,
		From:            day(from).Format("2006-01-02"),
		To:              day(opts.Now).Format("2006-01-02"),
		Series:          series,
		AveragePerDay:   avg,
		DaysLogged:      len(nutrition.GroupByDay(entries, day)),
		DaysOnTrack:     onTrack,
		CalorieTarget:   targets.Calories,
		Tolerance:       tolerance,
		CurrentStreak:   nutrition.CurrentStreak(history, opts.Now, day),
		ProteinPerEntry: protein,
		ProteinChampion: protein > nutrition.ProteinChampionThresholdG,
	}
	if name, count, ok := nutrition.FavoriteFood(entries); ok {
		report.FavoriteFood, report.FavoriteCount = name, count
	}
	if err := fillExtremes(report, entries, day); err != nil {
		return nil, err
	}
	return report, nil
}

func fillExtremes(report *InsightsReport, entries []model.FoodEntry, day nutrition.DayFunc) error {
	calories, err := nutrition.BuildSeries(entries, nutrition.MetricCalories, time.Time{}, farFuture, day)
	if err != nil {
		return err
	}
	for _, p := range calories {
		d := DayTotal{Date: p.Day.Format("2006-01-02"), Calories: p.Value}
		if report.HighestDay == nil || d.Calories > report.HighestDay.Calories {
			hd := d
			report.HighestDay = &hd
		}
		if report.LowestDay == nil || d.Calories < report.LowestDay.Calories {
			ld := d
			report.LowestDay = &ld
		}
	}
	return nil
}

var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
