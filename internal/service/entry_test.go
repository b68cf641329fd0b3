package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

func TestCreateAndGetEntryRoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	fiber := 2.5
	at := time.Date(2026, 2, 20, 8, 30, 0, 0, time.UTC)
	id, err := service.CreateEntry(db, service.EntryInput{
		Name:        "Greek Yogurt",
		Brand:       "Healthy Choice",
		Barcode:     "0123456789012",
		Calories:    150,
		ProteinG:    15,
		CarbsG:      12,
		FatG:        5,
		FiberG:      &fiber,
		ServingSize: 170,
		Quantity:    255,
		MealType:    "Breakfast",
		ConsumedAt:  at,
		SourceType:  model.SourceScanned,
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	got, err := service.GetEntry(db, id)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got.MealType != model.MealBreakfast || got.ServingUnit != "g" || got.SourceType != model.SourceScanned {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if !got.ConsumedAt.Equal(at) {
		t.Fatalf("expected consumed_at %s, got %s", at, got.ConsumedAt)
	}
	if got.FiberG == nil || *got.FiberG != 2.5 || got.SugarG != nil {
		t.Fatalf("expected fiber set and sugar absent, got %v / %v", got.FiberG, got.SugarG)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	base := service.EntryInput{Name: "Rice", Calories: 130, ServingSize: 100, Quantity: 100, MealType: model.MealLunch}
	cases := map[string]func(*service.EntryInput){
		"missing name":      func(in *service.EntryInput) { in.Name = " " },
		"zero serving size": func(in *service.EntryInput) { in.ServingSize = 0 },
		"negative calories": func(in *service.EntryInput) { in.Calories = -1 },
		"negative quantity": func(in *service.EntryInput) { in.Quantity = -5 },
		"bad meal":          func(in *service.EntryInput) { in.MealType = "brunch" },
	}
	for name, mutate := range cases {
		in := base
		mutate(&in)
		if _, err := service.CreateEntry(db, in); !errors.Is(err, service.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
	entries, err := service.ListEntries(db, service.ListEntriesFilter{})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no rows after failed inserts, got %d", len(entries))
	}
}

func TestListEntriesFiltersAndOrder(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	mustCreateEntry(t, db, "Oats", model.MealBreakfast, 300, 10, day.Add(8*time.Hour))
	mustCreateEntry(t, db, "Wrap", model.MealLunch, 500, 25, day.Add(13*time.Hour))
	mustCreateEntry(t, db, "Steak", model.MealDinner, 700, 50, day.Add(19*time.Hour))
	mustCreateEntry(t, db, "Late oats", model.MealSnack, 200, 8, day.AddDate(0, 0, 1).Add(time.Hour))

	got, err := service.ListEntries(db, service.ListEntriesFilter{From: day, To: day.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(got) != 3 || got[0].Name != "Steak" || got[2].Name != "Oats" {
		t.Fatalf("expected newest-first day slice, got %+v", got)
	}

	byMeal, err := service.ListEntries(db, service.ListEntriesFilter{MealType: model.MealLunch})
	if err != nil || len(byMeal) != 1 || byMeal[0].Name != "Wrap" {
		t.Fatalf("expected lunch filter to return Wrap, got %+v (%v)", byMeal, err)
	}

	byQuery, err := service.ListEntries(db, service.ListEntriesFilter{Query: "OATS", Limit: 1})
	if err != nil || len(byQuery) != 1 || byQuery[0].Name != "Late oats" {
		t.Fatalf("expected query+limit to return newest oats, got %+v (%v)", byQuery, err)
	}

	if _, err := service.ListEntries(db, service.ListEntriesFilter{From: day, To: day}); err == nil {
		t.Fatalf("expected empty range error")
	}
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	id := mustCreateEntry(t, db, "Wrap", model.MealLunch, 500, 25, at)
	e, err := service.GetEntry(db, id)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	in := service.EntryInputFrom(*e)
	in.Calories = 450
	in.MealType = model.MealDinner
	if err := service.UpdateEntry(db, id, in); err != nil {
		t.Fatalf("update entry: %v", err)
	}
	e, err = service.GetEntry(db, id)
	if err != nil {
		t.Fatalf("get updated entry: %v", err)
	}
	if e.Calories != 450 || e.MealType != model.MealDinner {
		t.Fatalf("expected updated fields, got %+v", e)
	}

	if err := service.UpdateEntry(db, id+100, in); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing entry, got %v", err)
	}
	if err := service.DeleteEntry(db, id); err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	if _, err := service.GetEntry(db, id); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := service.DeleteEntry(db, id); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestDuplicateEntryCopiesFields(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	id := mustCreateEntry(t, db, "Wrap", model.MealLunch, 500, 25, at)

	copyID, err := service.DuplicateEntry(db, id, service.DuplicateEntryOptions{})
	if err != nil {
		t.Fatalf("duplicate entry: %v", err)
	}
	if copyID == id {
		t.Fatalf("expected a new id")
	}
	src, _ := service.GetEntry(db, id)
	dup, err := service.GetEntry(db, copyID)
	if err != nil {
		t.Fatalf("get duplicate: %v", err)
	}
	if dup.Name != src.Name || dup.Calories != src.Calories || !dup.ConsumedAt.Equal(src.ConsumedAt) || dup.MealType != src.MealType {
		t.Fatalf("expected identical copy, got %+v vs %+v", dup, src)
	}

	now := at.Add(48 * time.Hour)
	restampedID, err := service.DuplicateEntry(db, id, service.DuplicateEntryOptions{Now: &now})
	if err != nil {
		t.Fatalf("duplicate with restamp: %v", err)
	}
	restamped, _ := service.GetEntry(db, restampedID)
	if !restamped.ConsumedAt.Equal(now) {
		t.Fatalf("expected restamped consumed_at %s, got %s", now, restamped.ConsumedAt)
	}
}
