package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/saadjs/caltrack/internal/model"
)

const DefaultVerifiedMinScore = 0.80

type ConfidenceScore struct {
	Score      float64  `json:"score"`
	IsVerified bool     `json:"is_verified"`
	Reasons    []string `json:"reasons,omitempty"`
}

var tokenPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ScoreBarcodeConfidence rates a barcode hit. Barcode results are exact by
// construction, so identity is fixed and only source and data quality vary.
func ScoreBarcodeConfidence(provider BarcodeProvider, f model.FoodItem, minScore float64) ConfidenceScore {
	return scoreFood(provider, f, 1.0, "barcode match", minScore, false)
}

// ScoreSearchConfidence rates how well a food answers a free-text query.
// Verification also requires the label to match the query closely.
func ScoreSearchConfidence(provider BarcodeProvider, f model.FoodItem, query string, minScore float64) ConfidenceScore {
	identity, reason := scoreSearchIdentityQuality(query, f.Label, f.Brand)
	return scoreFood(provider, f, identity, reason, minScore, true)
}

func scoreFood(provider BarcodeProvider, f model.FoodItem, identity float64, identityReason string, minScore float64, guard bool) ConfidenceScore {
	if minScore <= 0 {
		minScore = DefaultVerifiedMinScore
	}
	providerTrust := providerBaseConfidence(provider)
	nutritionQuality := scoreNutritionQuality(f)
	servingQuality := scoreServingQuality(f.ServingSize, f.ServingUnit)

	score := clamp01(0.45*providerTrust + 0.25*nutritionQuality + 0.15*servingQuality + 0.15*identity)
	verified := score >= minScore
	thresholdReason := fmt.Sprintf("verified_threshold=%.2f", minScore)
	if guard && identity < 0.7 {
		verified = false
		thresholdReason += " + identity_guard(identity>=0.70)"
	}
	return ConfidenceScore{
		Score:      score,
		IsVerified: verified,
		Reasons: []string{
			fmt.Sprintf("provider_trust=%.2f", providerTrust),
			fmt.Sprintf("nutrition_quality=%.2f", nutritionQuality),
			fmt.Sprintf("serving_quality=%.2f", servingQuality),
			fmt.Sprintf("identity_quality=%.2f (%s)", identity, identityReason),
			fmt.Sprintf("score=%.2f", score),
			thresholdReason,
		},
	}
}

func providerBaseConfidence(p BarcodeProvider) float64 {
	switch p {
	case BarcodeProviderMock:
		return 1.0
	case BarcodeProviderEdamam:
		return 0.9
	case BarcodeProviderUSDA:
		return 0.85
	case BarcodeProviderOpenFoodFacts:
		return 0.75
	case BarcodeProviderUPCItemDB:
		return 0.6
	default:
		return 0.5
	}
}

func scoreNutritionQuality(f model.FoodItem) float64 {
	macroCount := 0
	for _, v := range []float64{f.ProteinG, f.CarbsG, f.FatG} {
		if v > 0 {
			macroCount++
		}
	}
	switch {
	case f.Calories > 0 && macroCount == 3:
		return 1.0
	case f.Calories > 0 && macroCount >= 2:
		return 0.7
	case f.Calories > 0 || macroCount > 0 || f.FiberG > 0 || f.SugarG > 0:
		return 0.4
	default:
		return 0.2
	}
}

func scoreServingQuality(amount float64, unit string) float64 {
	hasAmount := amount > 0
	hasUnit := strings.TrimSpace(unit) != ""
	switch {
	case hasAmount && hasUnit:
		return 1.0
	case hasAmount || hasUnit:
		return 0.5
	default:
		return 0.0
	}
}

func scoreSearchIdentityQuality(query, label, brand string) (float64, string) {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return 0.4, "empty query tokens"
	}
	labelSet := toSet(tokenize(label))
	brandSet := toSet(tokenize(brand))

	matched, brandMatched := 0, false
	for _, t := range queryTokens {
		if labelSet[t] {
			matched++
		}
		if brandSet[t] {
			brandMatched = true
		}
	}
	overlap := float64(matched) / math.Max(1, float64(len(queryTokens)))
	switch {
	case overlap >= 0.75 && (brandMatched || len(labelSet) <= len(queryTokens)+1):
		return 1.0, "label matches query"
	case overlap >= 0.75:
		return 0.8, "high token overlap"
	case overlap >= 0.5:
		return 0.6, "moderate token overlap"
	default:
		return 0.4, "weak token overlap"
	}
}

func tokenize(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	parts := strings.Fields(tokenPattern.ReplaceAllString(s, " "))
	seen := map[string]bool{}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func toSet(tokens []string) map[string]bool {
	out := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		out[t] = true
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return math.Round(v*1000) / 1000
}
