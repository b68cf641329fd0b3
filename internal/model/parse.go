package model

import (
	"fmt"
	"strings"
)

func normalizeEnum(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "-", "_")
	v = strings.ReplaceAll(v, " ", "_")
	return v
}

func ParseSex(value string) (Sex, error) {
	switch s := Sex(normalizeEnum(value)); s {
	case SexMale, SexFemale, SexOther:
		return s, nil
	}
	return "", fmt.Errorf("invalid sex %q (expected male, female, or other)", value)
}

func ParseActivityLevel(value string) (ActivityLevel, error) {
	v := ActivityLevel(normalizeEnum(value))
	for _, level := range ActivityLevels {
		if v == level {
			return level, nil
		}
	}
	return "", fmt.Errorf("invalid activity level %q", value)
}

func ParseGoal(value string) (Goal, error) {
	v := normalizeEnum(value)
	switch v {
	case "maintain_weight":
		return GoalMaintain, nil
	case "lose":
		return GoalLoseWeight, nil
	case "gain":
		return GoalGainWeight, nil
	}
	for _, g := range Goals {
		if Goal(v) == g {
			return g, nil
		}
	}
	return "", fmt.Errorf("invalid goal %q", value)
}

func ParseMealType(value string) (MealType, error) {
	v := normalizeEnum(value)
	if v == "snacks" {
		return MealSnack, nil
	}
	for _, m := range MealTypes {
		if MealType(v) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid meal type %q (expected breakfast, lunch, dinner, or snack)", value)
}

func ParseSourceType(value string) (SourceType, error) {
	switch s := SourceType(normalizeEnum(value)); s {
	case "":
		return SourceManual, nil
	case SourceManual, SourceDetected, SourceScanned, SourceSearched:
		return s, nil
	}
	return "", fmt.Errorf("invalid source type %q", value)
}
