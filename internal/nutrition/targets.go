// Package nutrition turns a biometric profile into daily targets and
// aggregates logged food entries against them. Every function is pure and
// works on caller-supplied snapshots.
package nutrition

import "github.com/saadjs/caltrack/internal/model"

const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

// activityMultipliers maps each activity level to its TDEE multiplier.
var activityMultipliers = map[model.ActivityLevel]float64{
	model.ActivitySedentary:        1.2,
	model.ActivityLightlyActive:    1.375,
	model.ActivityModeratelyActive: 1.55,
	model.ActivityVeryActive:       1.725,
	model.ActivityExtraActive:      1.9,
}

var goalAdjustments = map[model.Goal]float64{
	model.GoalLoseWeight:  -500,
	model.GoalMaintain:    0,
	model.GoalGainWeight:  500,
	model.GoalBuildMuscle: 300,
}

// Biometrics is the subset of a profile that determines its targets.
type Biometrics struct {
	Age           int
	Sex           model.Sex
	HeightCm      float64
	WeightKg      float64
	ActivityLevel model.ActivityLevel
	Goal          model.Goal
}

type Targets struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// HasNegativeMacro reports a calorie target too low to cover the protein and
// fat allocation. Callers treat it as a data-quality warning.
func (t Targets) HasNegativeMacro() bool {
	return t.CarbsG < 0 || t.ProteinG < 0 || t.FatG < 0
}

func BiometricsOf(p model.Profile) Biometrics {
	return Biometrics{
		Age:           p.Age,
		Sex:           p.Sex,
		HeightCm:      p.HeightCm,
		WeightKg:      p.WeightKg,
		ActivityLevel: p.ActivityLevel,
		Goal:          p.Goal,
	}
}

func ActivityMultiplier(level model.ActivityLevel) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers[model.ActivitySedentary]
}

func GoalAdjustment(goal model.Goal) float64 {
	return goalAdjustments[goal]
}

// BMR uses the revised Harris-Benedict constants. Female and other share a branch.
func BMR(b Biometrics) float64 {
	age := float64(b.Age)
	if b.Sex == model.SexMale {
		return 88.362 + 13.397*b.WeightKg + 4.799*b.HeightCm - 5.677*age
	}
	return 447.593 + 9.247*b.WeightKg + 3.098*b.HeightCm - 4.330*age
}

func TDEE(b Biometrics) float64 {
	return BMR(b) * ActivityMultiplier(b.ActivityLevel)
}

// ComputeTargets derives the daily calorie and macro targets. Results are not
// clamped, so a very low calorie target can produce negative carbs.
func ComputeTargets(b Biometrics) Targets {
	calories := TDEE(b) + GoalAdjustment(b.Goal)

	proteinPerKg, fatShare := 1.6, 0.30
	if b.Goal == model.GoalBuildMuscle {
		proteinPerKg, fatShare = 2.2, 0.25
	}
	protein := b.WeightKg * proteinPerKg
	fat := calories * fatShare / kcalPerGramFat
	carbs := (calories - protein*kcalPerGramProtein - fat*kcalPerGramFat) / kcalPerGramCarbs

	return Targets{
		Calories: calories,
		ProteinG: protein,
		CarbsG:   carbs,
		FatG:     fat,
	}
}

// ApplyTargets recomputes all four targets on p from its biometrics.
func ApplyTargets(p *model.Profile) Targets {
	t := ComputeTargets(BiometricsOf(*p))
	p.CalorieTarget = t.Calories
	p.ProteinTargetG = t.ProteinG
	p.CarbTargetG = t.CarbsG
	p.FatTargetG = t.FatG
	return t
}

func TargetsOf(p model.Profile) Targets {
	return Targets{
		Calories: p.CalorieTarget,
		ProteinG: p.ProteinTargetG,
		CarbsG:   p.CarbTargetG,
		FatG:     p.FatTargetG,
	}
}
