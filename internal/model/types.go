package model

import "time"

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityExtraActive      ActivityLevel = "extra_active"
)

// ActivityLevels lists the levels from least to most active.
var ActivityLevels = []ActivityLevel{
	ActivitySedentary,
	ActivityLightlyActive,
	ActivityModeratelyActive,
	ActivityVeryActive,
	ActivityExtraActive,
}

type Goal string

const (
	GoalLoseWeight  Goal = "lose_weight"
	GoalMaintain    Goal = "maintain"
	GoalGainWeight  Goal = "gain_weight"
	GoalBuildMuscle Goal = "build_muscle"
)

var Goals = []Goal{GoalLoseWeight, GoalMaintain, GoalGainWeight, GoalBuildMuscle}

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes is the fixed display order for meal groups.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

type SourceType string

const (
	SourceManual   SourceType = "manual"
	SourceDetected SourceType = "detected"
	SourceScanned  SourceType = "scanned"
	SourceSearched SourceType = "searched"
)

type Profile struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email,omitempty"`
	Age            int           `json:"age"`
	Sex            Sex           `json:"sex"`
	HeightCm       float64       `json:"height_cm"`
	WeightKg       float64       `json:"weight_kg"`
	ActivityLevel  ActivityLevel `json:"activity_level"`
	Goal           Goal          `json:"goal"`
	CalorieTarget  float64       `json:"calorie_target"`
	ProteinTargetG float64       `json:"protein_target_g"`
	CarbTargetG    float64       `json:"carb_target_g"`
	FatTargetG     float64       `json:"fat_target_g"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// FoodEntry stores nutrients per serving. Quantity is the consumed amount in
// ServingUnit, so totals are nutrient / ServingSize * Quantity.
type FoodEntry struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Name        string     `json:"name"`
	Brand       string     `json:"brand,omitempty"`
	Barcode     string     `json:"barcode,omitempty"`
	ImageRef    string     `json:"image_ref,omitempty"`
	Calories    float64    `json:"calories"`
	ProteinG    float64    `json:"protein_g"`
	CarbsG      float64    `json:"carbs_g"`
	FatG        float64    `json:"fat_g"`
	FiberG      *float64   `json:"fiber_g,omitempty"`
	SugarG      *float64   `json:"sugar_g,omitempty"`
	SodiumMg    *float64   `json:"sodium_mg,omitempty"`
	ServingSize float64    `json:"serving_size"`
	ServingUnit string     `json:"serving_unit"`
	Quantity    float64    `json:"quantity"`
	MealType    MealType   `json:"meal_type"`
	ConsumedAt  time.Time  `json:"consumed_at"`
	SourceType  SourceType `json:"source_type"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Recipe struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Instructions string       `json:"instructions,omitempty"`
	Servings     int          `json:"servings"`
	PrepMinutes  int          `json:"prep_minutes"`
	CookMinutes  int          `json:"cook_minutes"`
	ImageRef     string       `json:"image_ref,omitempty"`
	IsFavorite   bool         `json:"is_favorite"`
	Ingredients  []Ingredient `json:"ingredients"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Ingredient nutrients are totals for Amount, not per unit.
type Ingredient struct {
	ID       int64   `json:"id"`
	RecipeID int64   `json:"recipe_id"`
	Position int     `json:"position"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// FoodItem is a food database result with nutrients for one reference serving.
type FoodItem struct {
	FoodID        string  `json:"food_id"`
	Label         string  `json:"label"`
	Brand         string  `json:"brand,omitempty"`
	Category      string  `json:"category,omitempty"`
	CategoryLabel string  `json:"category_label,omitempty"`
	Image         string  `json:"image,omitempty"`
	Calories      float64 `json:"calories"`
	ProteinG      float64 `json:"protein_g"`
	CarbsG        float64 `json:"carbs_g"`
	FatG          float64 `json:"fat_g"`
	FiberG        float64 `json:"fiber_g"`
	SugarG        float64 `json:"sugar_g"`
	ServingSize   float64 `json:"serving_size"`
	ServingUnit   string  `json:"serving_unit"`
}
