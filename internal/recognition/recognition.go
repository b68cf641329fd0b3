// Package recognition turns a food photo into ranked candidates with
// per-serving nutrients. The nutrition engine never sees which provider
// produced a candidate.
package recognition

import (
	"context"
	"errors"
	"sort"
)

var ErrNoCandidates = errors.New("no food recognized")

type Candidate struct {
	Name        string  `json:"name"`
	Confidence  float64 `json:"confidence"`
	Calories    float64 `json:"calories"`
	ProteinG    float64 `json:"protein_g"`
	CarbsG      float64 `json:"carbs_g"`
	FatG        float64 `json:"fat_g"`
	FiberG      float64 `json:"fiber_g,omitempty"`
	SugarG      float64 `json:"sugar_g,omitempty"`
	ServingSize float64 `json:"serving_size"`
	ServingUnit string  `json:"serving_unit"`
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

func (c Candidate) Level() ConfidenceLevel {
	switch {
	case c.Confidence >= 0.8:
		return ConfidenceHigh
	case c.Confidence >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Provider detects foods in an encoded image. Results are ordered by
// descending confidence; the first one is the primary guess.
type Provider interface {
	Detect(ctx context.Context, image []byte) ([]Candidate, error)
}

func sortByConfidence(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Confidence > cs[j].Confidence })
}
