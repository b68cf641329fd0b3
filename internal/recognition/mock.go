package recognition

import (
	"context"
	"errors"
)

// Mock returns a fixed salad guess for any non-empty image.
type Mock struct{}

var mockCandidates = []Candidate{
	{Name: "Grilled Chicken Salad", Confidence: 0.92, Calories: 320, ProteinG: 35, CarbsG: 12, FatG: 15, ServingSize: 250, ServingUnit: "g"},
	{Name: "Caesar Salad", Confidence: 0.78, Calories: 450, ProteinG: 20, CarbsG: 20, FatG: 35, ServingSize: 300, ServingUnit: "g"},
	{Name: "Greek Salad", Confidence: 0.65, Calories: 280, ProteinG: 15, CarbsG: 18, FatG: 20, ServingSize: 280, ServingUnit: "g"},
}

func (Mock) Detect(ctx context.Context, image []byte) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, errors.New("image is empty")
	}
	out := make([]Candidate, len(mockCandidates))
	copy(out, mockCandidates)
	return out, nil
}
