package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/recognition"
	"github.com/saadjs/caltrack/internal/service"
)

type emptyProvider struct{}

func (emptyProvider) Detect(ctx context.Context, image []byte) ([]recognition.Candidate, error) {
	return nil, nil
}

func TestDetectFoodWithMock(t *testing.T) {
	t.Parallel()
	found, err := service.DetectFood(context.Background(), recognition.Mock{}, []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("detect food: %v", err)
	}
	if len(found) != 3 || found[0].Name != "Grilled Chicken Salad" || found[0].Level != recognition.ConfidenceHigh {
		t.Fatalf("unexpected candidates: %+v", found)
	}
	if found[1].Level != recognition.ConfidenceMedium || found[2].Level != recognition.ConfidenceMedium {
		t.Fatalf("unexpected levels: %s / %s", found[1].Level, found[2].Level)
	}

	pick, err := service.SelectCandidate(found, "greek salad")
	if err != nil || pick.Name != "Greek Salad" {
		t.Fatalf("expected Greek Salad by name, got %+v (%v)", pick, err)
	}
	pick, err = service.SelectCandidate(found, "2")
	if err != nil || pick.Name != "Caesar Salad" {
		t.Fatalf("expected Caesar Salad by index, got %+v (%v)", pick, err)
	}
	if _, err := service.SelectCandidate(found, "9"); err == nil {
		t.Fatalf("expected out of range error")
	}

	in, err := service.EntryFromCandidate(found[0].Candidate, service.FoodEntryOptions{MealType: model.MealLunch})
	if err != nil {
		t.Fatalf("entry from candidate: %v", err)
	}
	if in.SourceType != model.SourceDetected || in.Quantity != 250 || in.Calories != 320 {
		t.Fatalf("unexpected entry input: %+v", in)
	}
}

func TestDetectFoodErrors(t *testing.T) {
	t.Parallel()
	if _, err := service.DetectFood(context.Background(), recognition.Mock{}, nil); err == nil {
		t.Fatalf("expected empty image error")
	}
	if _, err := service.DetectFood(context.Background(), emptyProvider{}, []byte{1}); !errors.Is(err, recognition.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	if _, err := service.DetectFood(context.Background(), nil, []byte{1}); err == nil {
		t.Fatalf("expected unconfigured provider error")
	}
}
