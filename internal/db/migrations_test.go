package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/caltrack/internal/db"
)

func TestApplyMigrationsIdempotentAndSeedsDefaults(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "caltrack.db")
	sqldb, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("first apply migrations: %v", err)
	}
	if _, err := sqldb.Exec(`UPDATE app_config SET value = 'true' WHERE key = 'onboarding.completed'`); err != nil {
		t.Fatalf("update setting: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("second apply migrations: %v", err)
	}

	version, err := db.SchemaVersion(sqldb)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != 4 {
		t.Fatalf("expected schema version 4, got %d", version)
	}

	for _, table := range []string{"profiles", "entries", "recipes", "recipe_ingredients", "app_config", "food_search_cache"} {
		var count int
		if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected %s table to exist", table)
		}
	}

	var onboarded string
	if err := sqldb.QueryRow(`SELECT value FROM app_config WHERE key = 'onboarding.completed'`).Scan(&onboarded); err != nil {
		t.Fatalf("read onboarding flag: %v", err)
	}
	if onboarded != "true" {
		t.Fatalf("expected reseeding to keep user value, got %q", onboarded)
	}
}

func TestEntriesRejectZeroServingSizeAndUnknownMeal(t *testing.T) {
	t.Parallel()

	sqldb, err := db.OpenMigrated(filepath.Join(t.TempDir(), "caltrack.db"))
	if err != nil {
		t.Fatalf("open migrated db: %v", err)
	}
	defer sqldb.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	insert := `INSERT INTO entries(name, calories, protein_g, carbs_g, fat_g, serving_size, quantity, meal_type, consumed_at, created_at, updated_at)
VALUES(?, 100, 1, 1, 1, ?, 1, ?, ?, ?, ?)`
	if _, err := sqldb.Exec(insert, "zero", 0, "lunch", now, now, now); err == nil {
		t.Fatalf("expected serving_size check to fail")
	}
	if _, err := sqldb.Exec(insert, "brunch", 100, "brunch", now, now, now); err == nil {
		t.Fatalf("expected meal_type check to fail")
	}
	if _, err := sqldb.Exec(insert, "ok", 100, "snack", now, now, now); err != nil {
		t.Fatalf("expected valid insert, got %v", err)
	}
}

func TestRecipeDeleteCascadesToIngredients(t *testing.T) {
	t.Parallel()

	sqldb, err := db.OpenMigrated(filepath.Join(t.TempDir(), "caltrack.db"))
	if err != nil {
		t.Fatalf("open migrated db: %v", err)
	}
	defer sqldb.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := sqldb.Exec(`INSERT INTO recipes(name, servings, created_at) VALUES('Chili', 4, ?)`, now)
	if err != nil {
		t.Fatalf("insert recipe: %v", err)
	}
	id, _ := res.LastInsertId()
	if _, err := sqldb.Exec(`INSERT INTO recipe_ingredients(recipe_id, position, name, amount, unit, calories, protein_g, carbs_g, fat_g)
VALUES(?, 1, 'Beans', 400, 'g', 400, 24, 60, 2)`, id); err != nil {
		t.Fatalf("insert ingredient: %v", err)
	}
	if _, err := sqldb.Exec(`DELETE FROM recipes WHERE id = ?`, id); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	var count int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM recipe_ingredients WHERE recipe_id = ?`, id).Scan(&count); err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cascade delete, %d ingredients remain", count)
	}
}
