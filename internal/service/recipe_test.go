package service_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

func chiliInput() service.RecipeInput {
	return service.RecipeInput{
		Name:        "Chili",
		Servings:    4,
		PrepMinutes: 15,
		CookMinutes: 45,
		Ingredients: []service.IngredientInput{
			{Name: "Beans", Amount: 400, Unit: "g", Calories: 400, ProteinG: 24, CarbsG: 60, FatG: 2},
			{Name: "Beef", Amount: 500, Unit: "g", Calories: 800, ProteinG: 80, CarbsG: 0, FatG: 50},
		},
	}
}

func TestCreateRecipeWithIngredients(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	id, err := service.CreateRecipe(db, chiliInput())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	detail, err := service.RecipeDetails(db, "chili")
	if err != nil {
		t.Fatalf("recipe details: %v", err)
	}
	if detail.ID != id || len(detail.Ingredients) != 2 {
		t.Fatalf("unexpected recipe: %+v", detail.Recipe)
	}
	if detail.Ingredients[0].Name != "Beans" || detail.Ingredients[1].Position != 2 {
		t.Fatalf("expected ingredients in insertion order, got %+v", detail.Ingredients)
	}
	if detail.Totals.Calories != 1200 || detail.PerServing.Calories != 300 || detail.PerServing.ProteinG != 26 {
		t.Fatalf("unexpected nutrition: totals %+v per serving %+v", detail.Totals, detail.PerServing)
	}
}

func TestCreateRecipeRejectsZeroServings(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	in := chiliInput()
	in.Servings = 0
	if _, err := service.CreateRecipe(db, in); err == nil {
		t.Fatalf("expected servings validation error")
	}
	in = chiliInput()
	in.Ingredients[1].Amount = 0
	if _, err := service.CreateRecipe(db, in); err == nil {
		t.Fatalf("expected ingredient validation error")
	}
	recipes, err := service.ListRecipes(db, false)
	if err != nil || len(recipes) != 0 {
		t.Fatalf("expected no recipes after failed creates, got %d (%v)", len(recipes), err)
	}
}

func TestAddAndDeleteRecipeIngredient(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	if _, err := service.CreateRecipe(db, chiliInput()); err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	ingID, err := service.AddRecipeIngredient(db, "Chili", service.IngredientInput{Name: "Onion", Amount: 1, Unit: "cup", Calories: 64, ProteinG: 2, CarbsG: 15})
	if err != nil {
		t.Fatalf("add ingredient: %v", err)
	}
	r, err := service.ResolveRecipe(db, "Chili")
	if err != nil {
		t.Fatalf("resolve recipe: %v", err)
	}
	if len(r.Ingredients) != 3 || r.Ingredients[2].Name != "Onion" || r.Ingredients[2].Position != 3 {
		t.Fatalf("expected onion appended at position 3, got %+v", r.Ingredients)
	}
	if err := service.DeleteRecipeIngredient(db, ingID); err != nil {
		t.Fatalf("delete ingredient: %v", err)
	}
	if err := service.DeleteRecipeIngredient(db, ingID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestDeleteRecipeCascadesIngredients(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	id, err := service.CreateRecipe(db, chiliInput())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if err := service.DeleteRecipe(db, "Chili"); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM recipe_ingredients WHERE recipe_id = ?`, id).Scan(&count); err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cascade delete, found %d ingredients", count)
	}
	if _, err := service.ResolveRecipe(db, "Chili"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLogRecipeSnapshotsEntry(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	if _, err := service.CreateRecipe(db, chiliInput()); err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	at := time.Date(2026, 2, 20, 19, 0, 0, 0, time.UTC)
	entryID, err := service.LogRecipe(db, service.LogRecipeInput{
		RecipeIdentifier: "Chili",
		Servings:         1.5,
		MealType:         model.MealDinner,
		ConsumedAt:       at,
	})
	if err != nil {
		t.Fatalf("log recipe: %v", err)
	}

	update := chiliInput()
	update.Ingredients = update.Ingredients[:1]
	if err := service.UpdateRecipe(db, "Chili", update); err != nil {
		t.Fatalf("update recipe: %v", err)
	}

	e, err := service.GetEntry(db, entryID)
	if err != nil {
		t.Fatalf("get logged entry: %v", err)
	}
	if e.Calories != 300 || e.ServingSize != 1 || e.Quantity != 1.5 {
		t.Fatalf("expected snapshot of 300 kcal x1.5 servings, got %+v", e)
	}
	r, _ := service.RecipeDetails(db, "Chili")
	if math.Abs(r.PerServing.Calories-100) > 1e-9 {
		t.Fatalf("expected updated recipe per-serving 100, got %.2f", r.PerServing.Calories)
	}
}

func TestSetRecipeFavoriteFiltersList(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	if _, err := service.CreateRecipe(db, chiliInput()); err != nil {
		t.Fatalf("create chili: %v", err)
	}
	soup := chiliInput()
	soup.Name = "Soup"
	if _, err := service.CreateRecipe(db, soup); err != nil {
		t.Fatalf("create soup: %v", err)
	}
	if err := service.SetRecipeFavorite(db, "Soup", true); err != nil {
		t.Fatalf("favorite soup: %v", err)
	}
	favs, err := service.ListRecipes(db, true)
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(favs) != 1 || favs[0].Name != "Soup" || !favs[0].IsFavorite || len(favs[0].Ingredients) != 2 {
		t.Fatalf("expected soup as only favorite, got %+v", favs)
	}
}
