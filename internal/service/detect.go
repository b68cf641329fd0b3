package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/recognition"
)

const (
	DetectProviderMock        = "mock"
	DetectProviderRekognition = "rekognition"
)

type DetectedFood struct {
	recognition.Candidate
	Level recognition.ConfidenceLevel `json:"level"`
}

// DetectFood runs the recognizer and tags each candidate with its confidence
// level. The first result is the primary guess.
func DetectFood(ctx context.Context, p recognition.Provider, image []byte) ([]DetectedFood, error) {
	if p == nil {
		return nil, fmt.Errorf("food recognition %w", ErrNotConfigured)
	}
	if len(image) == 0 {
		return nil, invalidf("image is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	candidates, err := p.Detect(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detect food: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("detect food: %w", recognition.ErrNoCandidates)
	}
	out := make([]DetectedFood, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, DetectedFood{Candidate: c, Level: c.Level()})
	}
	return out, nil
}

// SelectCandidate picks a candidate by 1-based position, or by
// case-insensitive name.
func SelectCandidate(found []DetectedFood, choice string) (DetectedFood, error) {
	if len(found) == 0 {
		return DetectedFood{}, invalidf("no candidates to choose from")
	}
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return found[0], nil
	}
	if n, err := parseIDLoose(choice); err == nil {
		if int(n) > len(found) {
			return DetectedFood{}, invalidf("candidate %d out of range (1-%d)", n, len(found))
		}
		return found[n-1], nil
	}
	for _, f := range found {
		if strings.EqualFold(f.Name, choice) {
			return f, nil
		}
	}
	return DetectedFood{}, fmt.Errorf("candidate %q: %w", choice, ErrNotFound)
}

// EntryFromCandidate logs a detected food. Servings default to one.
func EntryFromCandidate(c recognition.Candidate, opts FoodEntryOptions) (EntryInput, error) {
	opts.Source = model.SourceDetected
	return EntryFromFood(model.FoodItem{
		Label:       c.Name,
		Calories:    c.Calories,
		ProteinG:    c.ProteinG,
		CarbsG:      c.CarbsG,
		FatG:        c.FatG,
		FiberG:      c.FiberG,
		SugarG:      c.SugarG,
		ServingSize: c.ServingSize,
		ServingUnit: c.ServingUnit,
	}, opts)
}
