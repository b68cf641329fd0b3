package nutrition

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/caltrack/internal/model"
)

// DefaultTolerance is the on-track band around the calorie target.
const DefaultTolerance = 0.10

// ProteinChampionThresholdG is the per-entry protein average that earns the
// protein insight.
const ProteinChampionThresholdG = 30.0

type Metric string

const (
	MetricCalories Metric = "calories"
	MetricProtein  Metric = "protein"
	MetricCarbs    Metric = "carbs"
	MetricFat      Metric = "fat"
	// MetricWeight is accepted but always yields 0: no weight history is kept.
	MetricWeight Metric = "weight"
)

var Metrics = []Metric{MetricCalories, MetricProtein, MetricCarbs, MetricFat, MetricWeight}

func ParseMetric(value string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(value)))
	if m == "" {
		return MetricCalories, nil
	}
	for _, known := range Metrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid metric %q", value)
}

func (m Metric) valueOf(t Totals) float64 {
	switch m {
	case MetricCalories:
		return t.Calories
	case MetricProtein:
		return t.ProteinG
	case MetricCarbs:
		return t.CarbsG
	case MetricFat:
		return t.FatG
	default:
		return 0
	}
}

type TimeRange string

const (
	RangeWeek        TimeRange = "week"
	RangeMonth       TimeRange = "month"
	RangeThreeMonths TimeRange = "three_months"
)

func ParseTimeRange(value string) (TimeRange, error) {
	switch r := TimeRange(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")); r {
	case "":
		return RangeWeek, nil
	case RangeWeek, RangeMonth, RangeThreeMonths:
		return r, nil
	case "3_months", "quarter":
		return RangeThreeMonths, nil
	}
	return "", fmt.Errorf("invalid range %q (expected week, month, or three_months)", value)
}

func (r TimeRange) Days() int {
	switch r {
	case RangeMonth:
		return 30
	case RangeThreeMonths:
		return 90
	default:
		return 7
	}
}

// Start is the inclusive lower bound of the range ending at now.
func (r TimeRange) Start(now time.Time) time.Time {
	return now.AddDate(0, 0, -r.Days())
}

type SeriesPoint struct {
	Day   time.Time `json:"day"`
	Value float64   `json:"value"`
}

// BuildSeries returns one point per day in [day(start), day(end)] that has at
// least one entry, ascending by day. Empty days are absent, not zero.
func BuildSeries(entries []model.FoodEntry, metric Metric, start, end time.Time, day DayFunc) ([]SeriesPoint, error) {
	first, last := day(start), day(end)
	groups := GroupByDay(entries, day)
	out := make([]SeriesPoint, 0, len(groups))
	for d, dayEntries := range groups {
		if d.Before(first) || d.After(last) {
			continue
		}
		totals, err := DailyTotals(dayEntries)
		if err != nil {
			return nil, err
		}
		out = append(out, SeriesPoint{Day: d, Value: metric.valueOf(totals)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// AveragePerDay divides the totals by the number of distinct logged days.
func AveragePerDay(entries []model.FoodEntry, day DayFunc) (Totals, error) {
	if len(entries) == 0 {
		return Totals{}, nil
	}
	total, err := DailyTotals(entries)
	if err != nil {
		return Totals{}, err
	}
	days := len(GroupByDay(entries, day))
	return total.Scale(1 / float64(days)), nil
}

// OnTrack reports whether total is within target*tolerance of target, inclusive.
func OnTrack(total, target, tolerance float64) bool {
	return math.Abs(total-target) <= target*tolerance
}

func DaysOnTrack(entries []model.FoodEntry, calorieTarget, tolerance float64, day DayFunc) (int, error) {
	count := 0
	for _, dayEntries := range GroupByDay(entries, day) {
		totals, err := DailyTotals(dayEntries)
		if err != nil {
			return 0, err
		}
		if OnTrack(totals.Calories, calorieTarget, tolerance) {
			count++
		}
	}
	return count, nil
}

// CurrentStreak counts consecutive logged days ending at today. A day without
// entries ends the walk, and entries after today are ignored. Day keys are
// UTC dates, so stepping back one date never skips a day.
func CurrentStreak(entries []model.FoodEntry, today time.Time, day DayFunc) int {
	anchor := day(today)
	logged := make(map[time.Time]bool)
	for _, e := range entries {
		d := day(e.ConsumedAt)
		if d.After(anchor) {
			continue
		}
		logged[d] = true
	}
	streak := 0
	for check := anchor; logged[check]; check = check.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// FavoriteFood returns the most frequently logged entry name. Ties resolve to
// the alphabetically first name.
func FavoriteFood(entries []model.FoodEntry) (string, int, bool) {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Name]++
	}
	best, bestCount := "", 0
	for name, c := range counts {
		if c > bestCount || (c == bestCount && name < best) {
			best, bestCount = name, c
		}
	}
	return best, bestCount, bestCount > 0
}

// AverageProteinPerEntry averages total protein over entries, not days.
func AverageProteinPerEntry(entries []model.FoodEntry) (float64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	total, err := DailyTotals(entries)
	if err != nil {
		return 0, err
	}
	return total.ProteinG / float64(len(entries)), nil
}
