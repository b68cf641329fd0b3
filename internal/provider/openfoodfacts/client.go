// Package openfoodfacts looks products up by barcode in the Open Food Facts
// database.
package openfoodfacts

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

const defaultBaseURL = "https://world.openfoodfacts.org"

const userAgent = "caltrack/1.0 (+https://github.com/saadjs/caltrack)"

var ErrProductNotFound = errors.New("product not found")

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.FoodItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return model.FoodItem{}, fmt.Errorf("barcode is required")
	}
	body, err := c.get(ctx, fmt.Sprintf("/api/v2/product/%s.json", url.PathEscape(barcode)))
	if err != nil {
		return model.FoodItem{}, err
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.FoodItem{}, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return model.FoodItem{}, fmt.Errorf("barcode %q: %w", barcode, ErrProductNotFound)
	}
	item := parsed.Product.toModel()
	if item.FoodID == "" {
		item.FoodID = barcode
	}
	return item, nil
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	path := fmt.Sprintf("/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		url.QueryEscape(query), limit)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var parsed offSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode openfoodfacts search response: %w", err)
	}
	out := make([]model.FoodItem, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		out = append(out, p.toModel())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("query %q: %w", query, ErrProductNotFound)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}
	return body, nil
}

// toModel prefers per-serving nutriments when the product declares a serving
// and every macro is present per serving; otherwise it reports per 100 g.
func (p offProduct) toModel() model.FoodItem {
	item := model.FoodItem{
		FoodID:   strings.TrimSpace(p.Code),
		Label:    strings.TrimSpace(p.ProductName),
		Brand:    strings.TrimSpace(p.Brands),
		Category: firstCategory(p.Categories),
		Image:    strings.TrimSpace(p.ImageURL),
	}
	suffix := "_100g"
	item.ServingSize, item.ServingUnit = 100, "g"
	if amount, unit, ok := parseServing(p); ok && hasServingMacros(p.Nutriments) {
		suffix = "_serving"
		item.ServingSize, item.ServingUnit = amount, unit
	}
	item.Calories = nutrientValue(p.Nutriments, "energy-kcal"+suffix)
	item.ProteinG = nutrientValue(p.Nutriments, "proteins"+suffix)
	item.CarbsG = nutrientValue(p.Nutriments, "carbohydrates"+suffix)
	item.FatG = nutrientValue(p.Nutriments, "fat"+suffix)
	item.FiberG = nutrientValue(p.Nutriments, "fiber"+suffix)
	item.SugarG = nutrientValue(p.Nutriments, "sugars"+suffix)
	return item
}

func hasServingMacros(n map[string]any) bool {
	for _, key := range []string{"energy-kcal_serving", "proteins_serving", "carbohydrates_serving", "fat_serving"} {
		if _, ok := parseFloatAny(n[key]); !ok {
			return false
		}
	}
	return true
}

func nutrientValue(n map[string]any, key string) float64 {
	v, _ := parseFloatAny(n[key])
	return v
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseServing(p offProduct) (float64, string, bool) {
	if p.ServingQuantity > 0 {
		unit := strings.TrimSpace(p.ServingQuantityUnit)
		if unit == "" {
			unit = "g"
		}
		return p.ServingQuantity, unit, true
	}
	parts := strings.Fields(strings.TrimSpace(p.ServingSize))
	if len(parts) >= 2 {
		if val, err := strconv.ParseFloat(strings.ReplaceAll(parts[0], ",", "."), 64); err == nil && val > 0 {
			return val, parts[1], true
		}
	}
	return 0, "", false
}

func firstCategory(categories string) string {
	first, _, _ := strings.Cut(categories, ",")
	return strings.TrimSpace(first)
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	Categories          string         `json:"categories"`
	ImageURL            string         `json:"image_url"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     float64        `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
