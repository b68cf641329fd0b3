package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/nutrition"
)

type RecipeInput struct {
	Name         string
	Instructions string
	Servings     int
	PrepMinutes  int
	CookMinutes  int
	ImageRef     string
	IsFavorite   bool
	Ingredients  []IngredientInput
}

type IngredientInput struct {
	Name     string
	Amount   float64
	Unit     string
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

// RecipeDetail is a recipe with its derived nutrition.
type RecipeDetail struct {
	model.Recipe
	Totals     nutrition.Totals `json:"totals"`
	PerServing nutrition.Totals `json:"per_serving"`
}

// CreateRecipe inserts the recipe and its ingredients atomically.
func CreateRecipe(db *sql.DB, in RecipeInput) (int64, error) {
	if err := validateRecipeInput(in); err != nil {
		return 0, err
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin recipe tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
INSERT INTO recipes(name, instructions, servings, prep_minutes, cook_minutes, image_ref, is_favorite, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, strings.TrimSpace(in.Name), strings.TrimSpace(in.Instructions), in.Servings, in.PrepMinutes, in.CookMinutes,
		nullableString(in.ImageRef), in.IsFavorite, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("create recipe: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve recipe id: %w", err)
	}
	for i, ing := range in.Ingredients {
		if _, err := insertIngredient(tx, id, i+1, ing); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit recipe: %w", err)
	}
	return id, nil
}

// UpdateRecipe replaces the recipe fields and its whole ingredient list.
// Entries already logged from the recipe keep their snapshot values.
func UpdateRecipe(db *sql.DB, idOrName string, in RecipeInput) error {
	if err := validateRecipeInput(in); err != nil {
		return err
	}
	r, err := ResolveRecipe(db, idOrName)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin recipe tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
UPDATE recipes SET name = ?, instructions = ?, servings = ?, prep_minutes = ?, cook_minutes = ?, image_ref = ?, is_favorite = ?
WHERE id = ?
`, strings.TrimSpace(in.Name), strings.TrimSpace(in.Instructions), in.Servings, in.PrepMinutes, in.CookMinutes,
		nullableString(in.ImageRef), in.IsFavorite, r.ID); err != nil {
		return fmt.Errorf("update recipe %q: %w", idOrName, err)
	}
	if _, err := tx.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, r.ID); err != nil {
		return fmt.Errorf("clear recipe ingredients: %w", err)
	}
	for i, ing := range in.Ingredients {
		if _, err := insertIngredient(tx, r.ID, i+1, ing); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recipe: %w", err)
	}
	return nil
}

func ListRecipes(db *sql.DB, favoritesOnly bool) ([]model.Recipe, error) {
	query := recipeSelect
	if favoritesOnly {
		query += ` WHERE is_favorite = 1`
	}
	rows, err := db.Query(query + ` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	items := make([]model.Recipe, 0)
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	for i := range items {
		if items[i].Ingredients, err = listIngredients(db, items[i].ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// ResolveRecipe finds a recipe by numeric id or case-insensitive name and
// loads its ingredients in order.
func ResolveRecipe(db *sql.DB, idOrName string) (*model.Recipe, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return nil, invalidf("recipe identifier is required")
	}
	var row *sql.Row
	if id, err := parseIDLoose(idOrName); err == nil {
		row = db.QueryRow(recipeSelect+` WHERE id = ?`, id)
	} else {
		row = db.QueryRow(recipeSelect+` WHERE LOWER(name) = ?`, strings.ToLower(idOrName))
	}
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recipe %q: %w", idOrName, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if r.Ingredients, err = listIngredients(db, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

func RecipeDetails(db *sql.DB, idOrName string) (*RecipeDetail, error) {
	r, err := ResolveRecipe(db, idOrName)
	if err != nil {
		return nil, err
	}
	per, err := nutrition.RecipePerServing(*r)
	if err != nil {
		return nil, err
	}
	return &RecipeDetail{Recipe: *r, Totals: nutrition.RecipeTotals(*r), PerServing: per}, nil
}

func SetRecipeFavorite(db *sql.DB, idOrName string, favorite bool) error {
	r, err := ResolveRecipe(db, idOrName)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`UPDATE recipes SET is_favorite = ? WHERE id = ?`, favorite, r.ID); err != nil {
		return fmt.Errorf("update recipe %q favorite: %w", idOrName, err)
	}
	return nil
}

// DeleteRecipe removes the recipe; its ingredients go with it via the
// foreign key cascade.
func DeleteRecipe(db *sql.DB, idOrName string) error {
	r, err := ResolveRecipe(db, idOrName)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM recipes WHERE id = ?`, r.ID); err != nil {
		return fmt.Errorf("delete recipe %q: %w", idOrName, err)
	}
	return nil
}

// AddRecipeIngredient appends an ingredient at the end of the recipe.
func AddRecipeIngredient(db *sql.DB, recipeIdentifier string, in IngredientInput) (int64, error) {
	if err := validateIngredientInput(in); err != nil {
		return 0, err
	}
	r, err := ResolveRecipe(db, recipeIdentifier)
	if err != nil {
		return 0, err
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin ingredient tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRow(`SELECT IFNULL(MAX(position), 0) + 1 FROM recipe_ingredients WHERE recipe_id = ?`, r.ID).Scan(&next); err != nil {
		return 0, fmt.Errorf("resolve ingredient position: %w", err)
	}
	id, err := insertIngredient(tx, r.ID, next, in)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingredient: %w", err)
	}
	return id, nil
}

func DeleteRecipeIngredient(db *sql.DB, ingredientID int64) error {
	if ingredientID <= 0 {
		return invalidf("ingredient id must be > 0")
	}
	res, err := db.Exec(`DELETE FROM recipe_ingredients WHERE id = ?`, ingredientID)
	if err != nil {
		return fmt.Errorf("delete recipe ingredient %d: %w", ingredientID, err)
	}
	return requireAffected(res, fmt.Sprintf("recipe ingredient %d", ingredientID))
}

type LogRecipeInput struct {
	RecipeIdentifier string
	Servings         float64
	MealType         model.MealType
	ConsumedAt       time.Time
	UserID           string
}

// LogRecipe records servings of a recipe as one entry whose serving is one
// recipe serving.
func LogRecipe(db *sql.DB, in LogRecipeInput) (int64, error) {
	if err := validatePositiveFloat("servings", in.Servings); err != nil {
		return 0, err
	}
	detail, err := RecipeDetails(db, in.RecipeIdentifier)
	if err != nil {
		return 0, err
	}
	return CreateEntry(db, EntryInput{
		UserID:      in.UserID,
		Name:        detail.Name,
		ImageRef:    detail.ImageRef,
		Calories:    detail.PerServing.Calories,
		ProteinG:    detail.PerServing.ProteinG,
		CarbsG:      detail.PerServing.CarbsG,
		FatG:        detail.PerServing.FatG,
		ServingSize: 1,
		ServingUnit: "serving",
		Quantity:    in.Servings,
		MealType:    in.MealType,
		ConsumedAt:  in.ConsumedAt,
		SourceType:  model.SourceManual,
	})
}

func insertIngredient(tx *sql.Tx, recipeID int64, position int, in IngredientInput) (int64, error) {
	res, err := tx.Exec(`
INSERT INTO recipe_ingredients(recipe_id, position, name, amount, unit, calories, protein_g, carbs_g, fat_g)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, recipeID, position, strings.TrimSpace(in.Name), in.Amount, strings.TrimSpace(in.Unit), in.Calories, in.ProteinG, in.CarbsG, in.FatG)
	if err != nil {
		return 0, fmt.Errorf("add recipe ingredient %q: %w", in.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve ingredient id: %w", err)
	}
	return id, nil
}

func listIngredients(db *sql.DB, recipeID int64) ([]model.Ingredient, error) {
	rows, err := db.Query(`
SELECT id, recipe_id, position, name, amount, unit, calories, protein_g, carbs_g, fat_g
FROM recipe_ingredients
WHERE recipe_id = ?
ORDER BY position ASC
`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list recipe ingredients: %w", err)
	}
	defer rows.Close()
	items := make([]model.Ingredient, 0)
	for rows.Next() {
		var it model.Ingredient
		if err := rows.Scan(&it.ID, &it.RecipeID, &it.Position, &it.Name, &it.Amount, &it.Unit, &it.Calories, &it.ProteinG, &it.CarbsG, &it.FatG); err != nil {
			return nil, fmt.Errorf("scan recipe ingredient: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe ingredients: %w", err)
	}
	return items, nil
}

const recipeSelect = `
SELECT id, name, instructions, servings, prep_minutes, cook_minutes, IFNULL(image_ref, ''), is_favorite, created_at
FROM recipes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*model.Recipe, error) {
	var r model.Recipe
	var created string
	if err := row.Scan(&r.ID, &r.Name, &r.Instructions, &r.Servings, &r.PrepMinutes, &r.CookMinutes, &r.ImageRef, &r.IsFavorite, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan recipe: %w", err)
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = t
	return &r, nil
}

func validateRecipeInput(in RecipeInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("recipe name is required")
	}
	if in.Servings <= 0 {
		return invalidf("servings must be > 0")
	}
	if in.PrepMinutes < 0 || in.CookMinutes < 0 {
		return invalidf("prep and cook minutes must be >= 0")
	}
	for _, ing := range in.Ingredients {
		if err := validateIngredientInput(ing); err != nil {
			return err
		}
	}
	return nil
}

func validateIngredientInput(in IngredientInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("ingredient name is required")
	}
	if err := validatePositiveFloat("ingredient amount", in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Unit) == "" {
		return invalidf("ingredient unit is required")
	}
	for _, f := range []struct {
		name  string
		value float64
	}{{"calories", in.Calories}, {"protein", in.ProteinG}, {"carbs", in.CarbsG}, {"fat", in.FatG}} {
		if err := validateNonNegativeFloat(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}
