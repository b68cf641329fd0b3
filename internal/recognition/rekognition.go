package recognition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"go.uber.org/zap"

	"github.com/saadjs/caltrack/internal/provider/edamam"
)

const (
	maxLabels     = 5
	minConfidence = 75
)

// genericLabels are scene labels Rekognition attaches to most meal photos.
var genericLabels = map[string]bool{
	"food": true, "meal": true, "dish": true, "plate": true, "lunch": true,
	"dinner": true, "breakfast": true, "produce": true, "cuisine": true, "platter": true,
}

// LabelDetector is the subset of *rekognition.Client used here.
type LabelDetector interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// FoodSearcher resolves a label to nutrients. *edamam.Client satisfies it.
type FoodSearcher interface {
	SearchFood(ctx context.Context, query string) (edamam.SearchResult, error)
}

// Rekognition labels the image with AWS and looks each label up in a food
// database. Labels the database does not know are dropped.
type Rekognition struct {
	Labels LabelDetector
	Foods  FoodSearcher
	Log    *zap.Logger
}

func NewRekognition(ctx context.Context, region string, foods FoodSearcher, log *zap.Logger) (*Rekognition, error) {
	if strings.TrimSpace(region) == "" {
		return nil, errors.New("aws region is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Rekognition{Labels: rekognition.NewFromConfig(cfg), Foods: foods, Log: log}, nil
}

func (r *Rekognition) Detect(ctx context.Context, image []byte) ([]Candidate, error) {
	if len(image) == 0 {
		return nil, errors.New("image is empty")
	}
	if r.Labels == nil || r.Foods == nil {
		return nil, errors.New("rekognition provider is not configured")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	out, err := r.Labels.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(maxLabels),
		MinConfidence: aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	var candidates []Candidate
	seen := map[string]bool{}
	for _, l := range out.Labels {
		name := strings.TrimSpace(aws.ToString(l.Name))
		key := strings.ToLower(name)
		if name == "" || genericLabels[key] || seen[key] {
			continue
		}
		seen[key] = true

		res, err := r.Foods.SearchFood(ctx, name)
		if err != nil {
			if errors.Is(err, edamam.ErrUnauthorized) || errors.Is(err, edamam.ErrRateLimitExceeded) {
				return nil, fmt.Errorf("resolve label %q: %w", name, err)
			}
			log.Debug("label lookup failed", zap.String("label", name), zap.Error(err))
			continue
		}
		foods := res.Foods()
		if len(foods) == 0 {
			log.Debug("label has no food match", zap.String("label", name))
			continue
		}
		f := foods[0]
		candidates = append(candidates, Candidate{
			Name:        f.Label,
			Confidence:  float64(aws.ToFloat32(l.Confidence)) / 100,
			Calories:    f.Calories,
			ProteinG:    f.ProteinG,
			CarbsG:      f.CarbsG,
			FatG:        f.FatG,
			FiberG:      f.FiberG,
			SugarG:      f.SugarG,
			ServingSize: f.ServingSize,
			ServingUnit: f.ServingUnit,
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	sortByConfidence(candidates)
	return candidates, nil
}
