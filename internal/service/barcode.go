package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/provider/edamam"
	"github.com/saadjs/caltrack/internal/provider/openfoodfacts"
	"github.com/saadjs/caltrack/internal/provider/upcitemdb"
	"github.com/saadjs/caltrack/internal/provider/usda"
)

type BarcodeProvider string

const (
	BarcodeProviderEdamam        BarcodeProvider = "edamam"
	BarcodeProviderOpenFoodFacts BarcodeProvider = "openfoodfacts"
	BarcodeProviderUSDA          BarcodeProvider = "usda"
	BarcodeProviderUPCItemDB     BarcodeProvider = "upcitemdb"
	BarcodeProviderMock          BarcodeProvider = "mock"
)

func ParseBarcodeProvider(value string) (BarcodeProvider, error) {
	switch p := strings.ToLower(strings.TrimSpace(value)); p {
	case "", string(BarcodeProviderEdamam):
		return BarcodeProviderEdamam, nil
	case string(BarcodeProviderOpenFoodFacts), "off":
		return BarcodeProviderOpenFoodFacts, nil
	case string(BarcodeProviderUSDA), "fdc":
		return BarcodeProviderUSDA, nil
	case string(BarcodeProviderUPCItemDB), "upc":
		return BarcodeProviderUPCItemDB, nil
	case string(BarcodeProviderMock):
		return BarcodeProviderMock, nil
	default:
		return "", invalidf("unsupported barcode provider %q (expected edamam, openfoodfacts, usda, upcitemdb, or mock)", value)
	}
}

// BarcodeLookup resolves a scanned code to one food.
type BarcodeLookup interface {
	LookupBarcode(ctx context.Context, code string) (model.FoodItem, error)
}

// MockBarcode answers every valid code with the same yogurt.
type MockBarcode struct{}

func (MockBarcode) LookupBarcode(ctx context.Context, code string) (model.FoodItem, error) {
	if err := ctx.Err(); err != nil {
		return model.FoodItem{}, err
	}
	return model.FoodItem{
		FoodID:      "mock-" + code,
		Label:       "Greek Yogurt",
		Brand:       "Healthy Choice",
		Calories:    150,
		ProteinG:    15,
		CarbsG:      12,
		FatG:        5,
		ServingSize: 170,
		ServingUnit: "g",
	}, nil
}

// BarcodeClients holds the configured provider clients. Nil fields mean the
// provider is unavailable, except Open Food Facts and UPCitemdb which work
// without credentials.
type BarcodeClients struct {
	Edamam        *edamam.Client
	OpenFoodFacts *openfoodfacts.Client
	USDA          *usda.Client
	UPCItemDB     *upcitemdb.Client
}

// NewBarcodeLookup picks the client for provider.
func NewBarcodeLookup(provider BarcodeProvider, clients BarcodeClients) (BarcodeLookup, error) {
	switch provider {
	case BarcodeProviderEdamam:
		if clients.Edamam == nil {
			return nil, fmt.Errorf("edamam credentials %w (set EDAMAM_APP_ID and EDAMAM_APP_KEY)", ErrNotConfigured)
		}
		return clients.Edamam, nil
	case BarcodeProviderOpenFoodFacts:
		if clients.OpenFoodFacts == nil {
			return &openfoodfacts.Client{}, nil
		}
		return clients.OpenFoodFacts, nil
	case BarcodeProviderUSDA:
		if clients.USDA == nil {
			return nil, fmt.Errorf("usda api key %w (set USDA_API_KEY)", ErrNotConfigured)
		}
		return clients.USDA, nil
	case BarcodeProviderUPCItemDB:
		if clients.UPCItemDB == nil {
			return &upcitemdb.Client{}, nil
		}
		return clients.UPCItemDB, nil
	case BarcodeProviderMock:
		return MockBarcode{}, nil
	default:
		return nil, invalidf("unsupported barcode provider %q", provider)
	}
}

type ScannedFood struct {
	Provider   BarcodeProvider `json:"provider"`
	Barcode    string          `json:"barcode"`
	Food       model.FoodItem  `json:"food"`
	Confidence ConfidenceScore `json:"confidence"`
}

var barcodePattern = regexp.MustCompile(`^\d{8,14}$`)

func isValidBarcode(code string) bool {
	return barcodePattern.MatchString(code)
}

// LookupBarcode validates the code and asks lookup for it. Provider misses
// are reported as ErrNotFound, keeping the provider error in the chain.
func LookupBarcode(ctx context.Context, provider BarcodeProvider, lookup BarcodeLookup, code string) (*ScannedFood, error) {
	code = strings.TrimSpace(code)
	if !isValidBarcode(code) {
		return nil, invalidf("invalid barcode %q (expected 8-14 digits)", code)
	}
	if lookup == nil {
		return nil, fmt.Errorf("barcode lookup %w", ErrNotConfigured)
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	food, err := lookup.LookupBarcode(ctx, code)
	if isProviderMiss(err) {
		return nil, fmt.Errorf("barcode %s: %w: %w", code, ErrNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup barcode %s: %w", code, err)
	}
	return &ScannedFood{
		Provider:   provider,
		Barcode:    code,
		Food:       food,
		Confidence: ScoreBarcodeConfidence(provider, food, DefaultVerifiedMinScore),
	}, nil
}

func isProviderMiss(err error) bool {
	return errors.Is(err, edamam.ErrFoodNotFound) ||
		errors.Is(err, openfoodfacts.ErrProductNotFound) ||
		errors.Is(err, usda.ErrFoodNotFound) ||
		errors.Is(err, upcitemdb.ErrProductNotFound)
}

type FoodEntryOptions struct {
	// Servings, when > 0, sets Quantity to Servings * ServingSize.
	Servings float64
	// Quantity is the consumed amount in Unit, or in the food's serving unit
	// when Unit is empty.
	Quantity   float64
	Unit       string
	DensityGML float64
	MealType   model.MealType
	ConsumedAt time.Time
	UserID     string
	Barcode    string
	ImageRef   string
	Source     model.SourceType
}

// EntryFromFood turns a food database item into an entry input. One serving
// is eaten when neither Servings nor Quantity is set.
func EntryFromFood(f model.FoodItem, opts FoodEntryOptions) (EntryInput, error) {
	if err := validatePositiveFloat("food serving size", f.ServingSize); err != nil {
		return EntryInput{}, err
	}
	unit := strings.TrimSpace(f.ServingUnit)
	if unit == "" {
		unit = "g"
	}
	quantity := f.ServingSize
	switch {
	case opts.Servings > 0 && opts.Quantity > 0:
		return EntryInput{}, invalidf("use either servings or quantity, not both")
	case opts.Servings > 0:
		quantity = opts.Servings * f.ServingSize
	case opts.Quantity > 0:
		q, err := QuantityInServingUnit(opts.Quantity, opts.Unit, unit, opts.DensityGML)
		if err != nil {
			return EntryInput{}, err
		}
		quantity = q
	}
	fiber, sugar := f.FiberG, f.SugarG
	return EntryInput{
		UserID:      opts.UserID,
		Name:        f.Label,
		Brand:       f.Brand,
		Barcode:     opts.Barcode,
		ImageRef:    firstNonEmpty(opts.ImageRef, f.Image),
		Calories:    f.Calories,
		ProteinG:    f.ProteinG,
		CarbsG:      f.CarbsG,
		FatG:        f.FatG,
		FiberG:      &fiber,
		SugarG:      &sugar,
		ServingSize: f.ServingSize,
		ServingUnit: unit,
		Quantity:    quantity,
		MealType:    opts.MealType,
		ConsumedAt:  opts.ConsumedAt,
		SourceType:  opts.Source,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
