package nutrition_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/nutrition"
)

func TestCurrentStreakStopsAtGap(t *testing.T) {
	t.Parallel()
	today := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	entries := []model.FoodEntry{
		entryAt("a", model.MealLunch, 100, today),
		entryAt("b", model.MealLunch, 100, today.AddDate(0, 0, -1)),
		entryAt("c", model.MealLunch, 100, today.AddDate(0, 0, -2)),
		entryAt("d", model.MealLunch, 100, today.AddDate(0, 0, -4)),
	}
	if got := nutrition.CurrentStreak(entries, today, localDay); got != 3 {
		t.Fatalf("expected streak 3, got %d", got)
	}
}

func TestCurrentStreakRequiresToday(t *testing.T) {
	t.Parallel()
	today := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	entries := []model.FoodEntry{
		entryAt("b", model.MealLunch, 100, today.AddDate(0, 0, -1)),
		entryAt("c", model.MealLunch, 100, today.AddDate(0, 0, -2)),
	}
	if got := nutrition.CurrentStreak(entries, today, localDay); got != 0 {
		t.Fatalf("expected streak 0, got %d", got)
	}
	if got := nutrition.CurrentStreak(nil, today, localDay); got != 0 {
		t.Fatalf("expected streak 0 for no entries, got %d", got)
	}
}

func TestCurrentStreakIgnoresFutureEntries(t *testing.T) {
	t.Parallel()
	today := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	entries := []model.FoodEntry{
		entryAt("tomorrow", model.MealLunch, 100, today.AddDate(0, 0, 1)),
		entryAt("today", model.MealLunch, 100, today),
	}
	if got := nutrition.CurrentStreak(entries, today, localDay); got != 1 {
		t.Fatalf("expected streak 1, got %d", got)
	}
}

func TestDaysOnTrackInclusiveTolerance(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []model.FoodEntry{
		entryAt("within", model.MealLunch, 2150, base),
		entryAt("over", model.MealLunch, 2300, base.AddDate(0, 0, 1)),
		entryAt("edge", model.MealLunch, 1800, base.AddDate(0, 0, 2)),
		entryAt("split-a", model.MealLunch, 1000, base.AddDate(0, 0, 3)),
		entryAt("split-b", model.MealDinner, 1000, base.AddDate(0, 0, 3).Add(6*time.Hour)),
	}
	got, err := nutrition.DaysOnTrack(entries, 2000, nutrition.DefaultTolerance, localDay)
	if err != nil {
		t.Fatalf("days on track: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected 3 on-track days, got %d", got)
	}
}

func TestBuildSeriesSkipsEmptyDays(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)
	entries := []model.FoodEntry{
		entryAt("late", model.MealDinner, 700, start.AddDate(0, 0, 5).Add(20*time.Hour)),
		entryAt("early-a", model.MealBreakfast, 300, start.Add(8*time.Hour)),
		entryAt("early-b", model.MealLunch, 200, start.Add(12*time.Hour)),
		entryAt("outside", model.MealLunch, 999, start.AddDate(0, 0, -1)),
	}
	series, err := nutrition.BuildSeries(entries, nutrition.MetricCalories, start, end, localDay)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d (%+v)", len(series), series)
	}
	if !series[0].Day.Equal(start) || series[0].Value != 500 {
		t.Fatalf("unexpected first point: %+v", series[0])
	}
	if !series[1].Day.Equal(start.AddDate(0, 0, 5)) || series[1].Value != 700 {
		t.Fatalf("unexpected second point: %+v", series[1])
	}
}

func TestBuildSeriesMetrics(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.FoodEntry{entryAt("oats", model.MealBreakfast, 300, at)}
	cases := map[nutrition.Metric]float64{
		nutrition.MetricCalories: 300,
		nutrition.MetricProtein:  10,
		nutrition.MetricCarbs:    20,
		nutrition.MetricFat:      5,
		nutrition.MetricWeight:   0,
	}
	for metric, want := range cases {
		series, err := nutrition.BuildSeries(entries, metric, at, at, localDay)
		if err != nil {
			t.Fatalf("%s: build series: %v", metric, err)
		}
		if len(series) != 1 || series[0].Value != want {
			t.Fatalf("%s: expected single point %.1f, got %+v", metric, want, series)
		}
	}
}

func TestAveragePerDay(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.FoodEntry{
		entryAt("a", model.MealBreakfast, 1000, base),
		entryAt("b", model.MealLunch, 1000, base.Add(4*time.Hour)),
		entryAt("c", model.MealLunch, 1000, base.AddDate(0, 0, 2)),
	}
	avg, err := nutrition.AveragePerDay(entries, localDay)
	if err != nil {
		t.Fatalf("average per day: %v", err)
	}
	if avg.Calories != 1500 {
		t.Fatalf("expected 1500 kcal/day, got %.1f", avg.Calories)
	}
	empty, err := nutrition.AveragePerDay(nil, localDay)
	if err != nil || empty.Calories != 0 {
		t.Fatalf("expected zero average for no entries, got %+v (%v)", empty, err)
	}
}

func TestFavoriteFoodAndProteinAverage(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.FoodEntry{
		entryAt("Eggs", model.MealBreakfast, 200, at),
		entryAt("Apple", model.MealSnack, 80, at),
		entryAt("Eggs", model.MealBreakfast, 200, at.AddDate(0, 0, 1)),
		entryAt("Apple", model.MealSnack, 80, at.AddDate(0, 0, 1)),
	}
	name, count, ok := nutrition.FavoriteFood(entries)
	if !ok || name != "Apple" || count != 2 {
		t.Fatalf("expected tie to resolve to Apple x2, got %s x%d", name, count)
	}
	avg, err := nutrition.AverageProteinPerEntry(entries)
	if err != nil || avg != 10 {
		t.Fatalf("expected 10g protein per entry, got %.2f (%v)", avg, err)
	}
	if _, _, ok := nutrition.FavoriteFood(nil); ok {
		t.Fatalf("expected no favorite for empty input")
	}
}

func TestParseTimeRangeAndMetric(t *testing.T) {
	t.Parallel()
	r, err := nutrition.ParseTimeRange("3-months")
	if err != nil || r.Days() != 90 {
		t.Fatalf("expected three month range, got %s (%v)", r, err)
	}
	if _, err := nutrition.ParseTimeRange("decade"); err == nil {
		t.Fatalf("expected invalid range error")
	}
	m, err := nutrition.ParseMetric("Weight")
	if err != nil || m != nutrition.MetricWeight {
		t.Fatalf("expected weight metric, got %s (%v)", m, err)
	}
}

func TestDayKeysSurviveMidnightDSTStart(t *testing.T) {
	t.Parallel()
	cases := []struct {
		zone  string
		first time.Time
		days  int
	}{
		// Clocks jump from 00:00 to 01:00 on 2024-09-08.
		{"America/Santiago", time.Date(2024, 9, 6, 12, 0, 0, 0, time.UTC), 4},
		// Clocks jump from 00:00 to 01:00 on 2018-11-04.
		{"America/Sao_Paulo", time.Date(2018, 11, 2, 12, 0, 0, 0, time.UTC), 5},
	}
	for _, tc := range cases {
		t.Run(tc.zone, func(t *testing.T) {
			loc, err := time.LoadLocation(tc.zone)
			if err != nil {
				t.Fatalf("load %s: %v", tc.zone, err)
			}
			day := nutrition.LocalDay(loc)
			y, m, d := tc.first.Date()
			var entries []model.FoodEntry
			for i := 0; i < tc.days; i++ {
				at := time.Date(y, m, d+i, 12, 0, 0, 0, loc)
				entries = append(entries, entryAt("meal", model.MealLunch, 500, at))
			}
			last := entries[len(entries)-1].ConsumedAt

			if got := nutrition.CurrentStreak(entries, last, day); got != tc.days {
				t.Fatalf("expected streak %d, got %d", tc.days, got)
			}
			series, err := nutrition.BuildSeries(entries, nutrition.MetricCalories, entries[0].ConsumedAt, last, day)
			if err != nil {
				t.Fatalf("build series: %v", err)
			}
			if len(series) != tc.days {
				t.Fatalf("expected %d points, got %+v", tc.days, series)
			}
			for i, p := range series {
				want := time.Date(y, m, d+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
				if got := p.Day.Format("2006-01-02"); got != want {
					t.Fatalf("point %d: expected %s, got %s", i, want, got)
				}
			}
		})
	}
}
