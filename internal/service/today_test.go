package service_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

func TestTodaySummaryGroupsByMeal(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	mustCreateEntry(t, db, "Steak", model.MealDinner, 700, 50, day.Add(19*time.Hour))
	mustCreateEntry(t, db, "Oats", model.MealBreakfast, 300, 10, day.Add(8*time.Hour))
	mustCreateEntry(t, db, "Wrap", model.MealLunch, 500, 25, day.Add(13*time.Hour))
	mustCreateEntry(t, db, "Yesterday", model.MealLunch, 900, 25, day.Add(-time.Hour))

	s, err := service.LoadSession(db)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sum, err := service.TodaySummary(db, s, day.Add(12*time.Hour), time.UTC)
	if err != nil {
		t.Fatalf("today summary: %v", err)
	}
	if sum.Date != "2026-03-04" || sum.EntryCount != 3 || sum.Consumed.Calories != 1500 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.HasProfile || sum.Targets != service.DefaultTargets {
		t.Fatalf("expected default targets without profile, got %+v", sum.Targets)
	}
	if sum.Remaining.Calories != 500 || sum.Remaining.ProteinG != 65 {
		t.Fatalf("unexpected remaining: %+v", sum.Remaining)
	}
	wantOrder := []model.MealType{model.MealBreakfast, model.MealLunch, model.MealDinner}
	if len(sum.Meals) != len(wantOrder) {
		t.Fatalf("expected %d meal groups, got %d", len(wantOrder), len(sum.Meals))
	}
	for i, m := range wantOrder {
		if sum.Meals[i].MealType != m {
			t.Fatalf("group %d: expected %s, got %s", i, m, sum.Meals[i].MealType)
		}
	}
	if sum.Meals[2].Totals.Calories != 700 {
		t.Fatalf("expected dinner total 700, got %.1f", sum.Meals[2].Totals.Calories)
	}
}

func TestTodaySummaryUsesProfileTargets(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	p, err := service.SaveProfile(db, maleInput(model.GoalMaintain), time.Now())
	if err != nil {
		t.Fatalf("save profile: %v", err)
	}
	s, err := service.LoadSession(db)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sum, err := service.TodaySummary(db, s, time.Now(), time.UTC)
	if err != nil {
		t.Fatalf("today summary: %v", err)
	}
	if !sum.HasProfile || sum.Targets.Calories != p.CalorieTarget {
		t.Fatalf("expected profile targets, got %+v", sum.Targets)
	}
	if sum.EntryCount != 0 || len(sum.Meals) != 0 || sum.OnTrack {
		t.Fatalf("expected empty day, got %+v", sum)
	}
	if sum.Warning != "" {
		t.Fatalf("unexpected warning %q", sum.Warning)
	}
}

func TestDayBoundsWhenMidnightIsSkipped(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	// 2024-09-08 starts at 01:00 local; 00:00 does not exist.
	start, end := service.DayBounds(time.Date(2024, 9, 8, 12, 0, 0, 0, loc), loc)
	if got := start.In(loc).Format("2006-01-02 15:04"); got != "2024-09-08 01:00" {
		t.Fatalf("expected day to start at 01:00, got %s", got)
	}
	if got := end.In(loc).Format("2006-01-02 15:04"); got != "2024-09-09 00:00" {
		t.Fatalf("expected day to end at next midnight, got %s", got)
	}
	_, prevEnd := service.DayBounds(time.Date(2024, 9, 7, 12, 0, 0, 0, loc), loc)
	if !prevEnd.Equal(start) {
		t.Fatalf("expected contiguous days, got %s then %s", prevEnd, start)
	}
	parsed, err := service.ParseDate("2024-09-08", loc)
	if err != nil || !parsed.Equal(start) {
		t.Fatalf("expected ParseDate to match day start %s, got %s (%v)", start, parsed, err)
	}

	db := newTestDB(t)
	mustCreateEntry(t, db, "Late snack", model.MealSnack, 200, 5, time.Date(2024, 9, 7, 23, 30, 0, 0, loc))
	mustCreateEntry(t, db, "Breakfast", model.MealBreakfast, 400, 20, time.Date(2024, 9, 8, 8, 0, 0, 0, loc))
	s, err := service.LoadSession(db)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sum, err := service.TodaySummary(db, s, parsed, loc)
	if err != nil {
		t.Fatalf("today summary: %v", err)
	}
	if sum.EntryCount != 1 || sum.Consumed.Calories != 400 {
		t.Fatalf("expected only the 2024-09-08 entry, got %+v", sum)
	}
}
