package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/caltrack/internal/db"
	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "caltrack.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	return sqldb
}

func mustCreateEntry(t *testing.T, sqldb *sql.DB, name string, meal model.MealType, calories, protein float64, at time.Time) int64 {
	t.Helper()
	id, err := service.CreateEntry(sqldb, service.EntryInput{
		Name:        name,
		Calories:    calories,
		ProteinG:    protein,
		CarbsG:      10,
		FatG:        5,
		ServingSize: 100,
		Quantity:    100,
		MealType:    meal,
		ConsumedAt:  at,
	})
	if err != nil {
		t.Fatalf("create entry %s: %v", name, err)
	}
	return id
}

func maleInput(goal model.Goal) service.ProfileInput {
	return service.ProfileInput{
		Name:          "Sam",
		Age:           30,
		Sex:           model.SexMale,
		HeightCm:      175,
		WeightKg:      70,
		ActivityLevel: model.ActivitySedentary,
		Goal:          goal,
	}
}
