// Package upcitemdb resolves UPC/EAN codes through the UPCitemdb product
// catalogue. Nutrition facts are sparse there; products without calories are
// still returned so callers can fill them in.
package upcitemdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/caltrack/internal/model"
)

const defaultBaseURL = "https://api.upcitemdb.com"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrUnauthorized      = errors.New("invalid api credentials")
	ErrRateLimitExceeded = errors.New("api rate limit exceeded")
)

// Client uses the free trial endpoints unless APIKey is set.
type Client struct {
	BaseURL    string
	APIKey     string
	APIKeyType string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.FoodItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return model.FoodItem{}, fmt.Errorf("barcode is required")
	}
	parsed, err := c.get(ctx, "lookup", url.Values{"upc": {barcode}})
	if err != nil {
		return model.FoodItem{}, err
	}
	if !strings.EqualFold(parsed.Code, "OK") || len(parsed.Items) == 0 {
		return model.FoodItem{}, fmt.Errorf("barcode %q: %w", barcode, ErrProductNotFound)
	}
	food := parsed.Items[0].toModel()
	if food.FoodID == "" {
		food.FoodID = barcode
	}
	return food, nil
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	parsed, err := c.get(ctx, "search", url.Values{"s": {query}, "match_mode": {"0"}, "type": {"product"}})
	if err != nil {
		return nil, err
	}
	out := make([]model.FoodItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		out = append(out, it.toModel())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("query %q: %w", query, ErrProductNotFound)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) (response, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	key := strings.TrimSpace(c.APIKey)
	tier := "trial"
	if key != "" {
		tier = "v1"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/prod/%s/%s?%s", base, tier, endpoint, q.Encode()), nil)
	if err != nil {
		return response{}, fmt.Errorf("create upcitemdb request: %w", err)
	}
	if key != "" {
		keyType := strings.TrimSpace(c.APIKeyType)
		if keyType == "" {
			keyType = "3scale"
		}
		req.Header.Set("key_type", keyType)
		req.Header.Set("user_key", key)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("execute upcitemdb request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read upcitemdb response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return response{}, ErrProductNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return response{}, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return response{}, ErrRateLimitExceeded
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return response{}, fmt.Errorf("upcitemdb request failed with status %d", resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return response{}, fmt.Errorf("decode upcitemdb response: %w", err)
	}
	return parsed, nil
}

// toModel treats the listed nutrition facts as one serving of Size.
func (it item) toModel() model.FoodItem {
	amount, unit := parseServing(it.Size)
	return model.FoodItem{
		FoodID:      strings.TrimSpace(firstNonEmpty(it.UPC, it.EAN)),
		Label:       strings.TrimSpace(it.Title),
		Brand:       strings.TrimSpace(it.Brand),
		Category:    firstCategory(it.Category),
		Image:       firstImage(it.Images),
		Calories:    parseNutrient(it.NutritionFacts, "calories", "energy"),
		ProteinG:    parseNutrient(it.NutritionFacts, "protein"),
		CarbsG:      parseNutrient(it.NutritionFacts, "total carbohydrate", "carbohydrate", "carbohydrates"),
		FatG:        parseNutrient(it.NutritionFacts, "total fat", "fat"),
		FiberG:      parseNutrient(it.NutritionFacts, "dietary fiber", "fiber"),
		SugarG:      parseNutrient(it.NutritionFacts, "total sugars", "sugars", "sugar"),
		ServingSize: amount,
		ServingUnit: unit,
	}
}

func parseServing(size string) (float64, string) {
	parts := strings.Fields(strings.TrimSpace(size))
	if len(parts) >= 2 {
		if f, err := strconv.ParseFloat(strings.Trim(parts[0], ","), 64); err == nil && f > 0 {
			return f, strings.ToLower(parts[1])
		}
	}
	return 100, "g"
}

// parseNutrient returns the first of keys present in n, compared without
// case. Values like "12g" or "120 mg" keep only their number.
func parseNutrient(n map[string]any, keys ...string) float64 {
	lowered := make(map[string]any, len(n))
	for k, v := range n {
		lowered[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, key := range keys {
		v, ok := lowered[key]
		if !ok {
			continue
		}
		var filtered strings.Builder
		for _, r := range fmt.Sprintf("%v", v) {
			if (r >= '0' && r <= '9') || r == '.' {
				filtered.WriteRune(r)
			}
		}
		if f, err := strconv.ParseFloat(filtered.String(), 64); err == nil {
			return f
		}
	}
	return 0
}

func firstCategory(category string) string {
	first, _, _ := strings.Cut(category, ">")
	return strings.TrimSpace(first)
}

func firstImage(images []string) string {
	for _, img := range images {
		if strings.TrimSpace(img) != "" {
			return strings.TrimSpace(img)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type response struct {
	Code  string `json:"code"`
	Items []item `json:"items"`
}

type item struct {
	UPC            string         `json:"upc"`
	EAN            string         `json:"ean"`
	Title          string         `json:"title"`
	Brand          string         `json:"brand"`
	Category       string         `json:"category"`
	Size           string         `json:"size"`
	Images         []string       `json:"images"`
	NutritionFacts map[string]any `json:"nutrition_facts"`
}
