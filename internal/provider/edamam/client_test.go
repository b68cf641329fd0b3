package edamam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const chickenResponse = `{
  "text": "chicken",
  "parsed": [
    {"food": {"foodId": "food_chicken", "label": "Chicken", "category": "Generic foods", "categoryLabel": "food",
      "nutrients": {"ENERC_KCAL": 215, "PROCNT": 18.6, "FAT": 15.1, "CHOCDF": 0}}}
  ],
  "hints": [
    {"food": {"foodId": "food_chicken", "label": "Chicken", "nutrients": {"ENERC_KCAL": 215}}},
    {"food": {"foodId": "food_breast", "label": "Chicken Breast", "image": "https://img.test/b.jpg",
      "nutrients": {"ENERC_KCAL": 120, "PROCNT": 22.5, "FIBTG": 0.1}}}
  ]
}`

func TestSearchFoodParsesParsedAndHints(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/food-database/v2/parser" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("app_id") != "id" || q.Get("app_key") != "key" || q.Get("ingr") != "chicken breast" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chickenResponse))
	}))
	defer ts.Close()

	c := &Client{AppID: "id", AppKey: "key", BaseURL: ts.URL, HTTPClient: ts.Client()}
	res, err := c.SearchFood(context.Background(), "  chicken breast ")
	if err != nil {
		t.Fatalf("search food: %v", err)
	}
	if len(res.Parsed) != 1 || len(res.Hints) != 2 {
		t.Fatalf("unexpected result sizes: %+v", res)
	}
	first := res.Parsed[0]
	if first.Label != "Chicken" || first.Calories != 215 || first.ProteinG != 18.6 || first.FatG != 15.1 {
		t.Fatalf("unexpected parsed item: %+v", first)
	}
	if first.ServingSize != 100 || first.ServingUnit != "g" {
		t.Fatalf("expected 100 g reference serving, got %.0f %s", first.ServingSize, first.ServingUnit)
	}
	if res.Hints[1].CarbsG != 0 || res.Hints[1].FiberG != 0.1 {
		t.Fatalf("expected missing nutrients to default to 0: %+v", res.Hints[1])
	}
	if foods := res.Foods(); len(foods) != 2 || foods[1].FoodID != "food_breast" {
		t.Fatalf("expected de-duplicated foods, got %+v", foods)
	}
}

func TestSearchFoodEmptyQuery(t *testing.T) {
	t.Parallel()
	c := &Client{BaseURL: "http://127.0.0.1:1"}
	if _, err := c.SearchFood(context.Background(), "   "); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestSearchFoodInvalidBaseURL(t *testing.T) {
	t.Parallel()
	c := &Client{BaseURL: "not a url"}
	if _, err := c.SearchFood(context.Background(), "apple"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestSearchFoodMapsStatusErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimitExceeded},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
		_, err := c.SearchFood(context.Background(), "apple")
		ts.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestSearchFoodGenericFailureAndEmptyBody(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	c := &Client{BaseURL: failing.URL, HTTPClient: failing.Client()}
	_, err := c.SearchFood(context.Background(), "apple")
	if err == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected generic status error, got %v", err)
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer empty.Close()
	c = &Client{BaseURL: empty.URL, HTTPClient: empty.Client()}
	if _, err := c.SearchFood(context.Background(), "apple"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestLookupBarcode(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("ingr") == "0000" {
			_, _ = w.Write([]byte(`{"parsed": [], "hints": [{"food": {"foodId": "x", "label": "Hint only", "nutrients": {}}}]}`))
			return
		}
		_, _ = w.Write([]byte(chickenResponse))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, err := c.LookupBarcode(context.Background(), "012345678905")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if item.FoodID != "food_chicken" {
		t.Fatalf("expected first parsed food, got %+v", item)
	}
	if _, err := c.LookupBarcode(context.Background(), "0000"); !errors.Is(err, ErrFoodNotFound) {
		t.Fatalf("expected ErrFoodNotFound, got %v", err)
	}
}
