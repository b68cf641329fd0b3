package upcitemdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupBarcodeParsesUPCItemDBResponse(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/trial/lookup" || r.URL.Query().Get("upc") != "123456789012" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "code": "OK",
  "items": [
    {
      "upc": "123456789012",
      "title": "Test Cereal",
      "brand": "Test Brand",
      "category": "Food > Breakfast Cereals",
      "size": "40 g",
      "images": ["", "https://img.example/cereal.jpg"],
      "nutrition_facts": {
        "Calories": "150",
        "Protein": "3g",
        "Total Carbohydrate": "30g",
        "Total Fat": "2g",
        "Saturated Fat": "0.5g",
        "Dietary Fiber": "5g",
        "Total Sugars": "8g",
        "Sodium": "120mg"
      }
    }
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, err := c.LookupBarcode(context.Background(), "123456789012")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if item.Label != "Test Cereal" || item.Calories != 150 || item.ProteinG != 3 || item.CarbsG != 30 || item.FatG != 2 {
		t.Fatalf("unexpected parsed item: %+v", item)
	}
	if item.FiberG != 5 || item.SugarG != 8 {
		t.Fatalf("unexpected fiber/sugar: %+v", item)
	}
	if item.ServingSize != 40 || item.ServingUnit != "g" {
		t.Fatalf("expected 40 g serving, got %.0f %s", item.ServingSize, item.ServingUnit)
	}
	if item.FoodID != "123456789012" || item.Category != "Food" || item.Image != "https://img.example/cereal.jpg" {
		t.Fatalf("unexpected identity fields: %+v", item)
	}
}

func TestLookupBarcodeUsesKeyedEndpoint(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/v1/lookup" {
			t.Errorf("expected keyed endpoint, got %s", r.URL.Path)
		}
		if r.Header.Get("user_key") != "secret" || r.Header.Get("key_type") != "3scale" {
			t.Errorf("missing key headers: %v", r.Header)
		}
		_, _ = w.Write([]byte(`{"code": "OK", "items": []}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, APIKey: "secret", HTTPClient: ts.Client()}
	if _, err := c.LookupBarcode(context.Background(), "12345678"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestLookupBarcodeRateLimited(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	if _, err := c.LookupBarcode(context.Background(), "12345678"); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
}

func TestSearchFoodsParsesUPCItemDBResponse(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/trial/search" || r.URL.Query().Get("s") != "yogurt" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "code": "OK",
  "items": [
    {
      "title": "Greek Yogurt Strawberry",
      "brand": "Test Brand",
      "upc": "123456789012",
      "size": "150 g",
      "nutrition_facts": {
        "Calories": "140",
        "Protein": "12g",
        "Total Carbohydrate": "15g",
        "Total Fat": "3g"
      }
    },
    {"title": "Greek Yogurt Plain", "upc": "123456789013"}
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	items, err := c.SearchFoods(context.Background(), "yogurt", 1)
	if err != nil {
		t.Fatalf("search foods: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected limit to cap results at 1, got %d", len(items))
	}
	if items[0].Label != "Greek Yogurt Strawberry" || items[0].FoodID != "123456789012" || items[0].Calories != 140 {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestParseServingDefaultsTo100g(t *testing.T) {
	t.Parallel()
	for _, size := range []string{"", "large", "0 g"} {
		if amount, unit := parseServing(size); amount != 100 || unit != "g" {
			t.Fatalf("size %q: expected 100 g, got %.0f %s", size, amount, unit)
		}
	}
}
