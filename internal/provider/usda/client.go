// Package usda searches the USDA FoodData Central database of branded and
// generic foods.
package usda

import (
	"bytes"
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

const defaultBaseURL = "https://api.nal.usda.gov"

var (
	ErrFoodNotFound      = errors.New("food not found")
	ErrMissingAPIKey     = errors.New("missing USDA API key")
	ErrUnauthorized      = errors.New("invalid api credentials")
	ErrRateLimitExceeded = errors.New("api rate limit exceeded")
)

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// LookupBarcode searches branded foods for the GTIN/UPC. An exact gtinUpc
// match wins; otherwise the first hit is used.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.FoodItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return model.FoodItem{}, fmt.Errorf("barcode is required")
	}
	foods, err := c.search(ctx, barcode, []string{"Branded"}, 20)
	if err != nil {
		return model.FoodItem{}, err
	}
	food, ok := selectBarcodeMatch(foods, barcode)
	if !ok {
		return model.FoodItem{}, fmt.Errorf("barcode %q: %w", barcode, ErrFoodNotFound)
	}
	return food.toModel(), nil
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	foods, err := c.search(ctx, query, []string{"Branded", "Foundation", "SR Legacy"}, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.FoodItem, 0, len(foods))
	for _, f := range foods {
		if strings.TrimSpace(f.Description) == "" {
			continue
		}
		out = append(out, f.toModel())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("query %q: %w", query, ErrFoodNotFound)
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, query string, dataTypes []string, pageSize int) ([]usdaFood, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	payload, err := json.Marshal(searchRequest{Query: query, DataType: dataTypes, PageSize: pageSize})
	if err != nil {
		return nil, fmt.Errorf("marshal usda search payload: %w", err)
	}
	body, err := c.post(ctx, "/fdc/v1/foods/search", payload)
	if err != nil {
		return nil, err
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode usda response: %w", err)
	}
	return parsed.Foods, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	endpoint := base + path + "?api_key=" + url.QueryEscape(c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create usda request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute usda request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read usda response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimitExceeded
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("usda request failed with status %d", resp.StatusCode)
	}
	return body, nil
}

func selectBarcodeMatch(foods []usdaFood, barcode string) (usdaFood, bool) {
	for _, f := range foods {
		if strings.TrimSpace(f.GTINUPC) == barcode {
			return f, true
		}
	}
	if len(foods) > 0 {
		return foods[0], true
	}
	return usdaFood{}, false
}

// toModel reports nutrients per 100 g (or ml), which is how the search
// endpoint returns them for every data type.
func (f usdaFood) toModel() model.FoodItem {
	item := model.FoodItem{
		FoodID:      strconv.FormatInt(f.FDCID, 10),
		Label:       strings.TrimSpace(f.Description),
		Brand:       strings.TrimSpace(firstNonEmpty(f.BrandName, f.BrandOwner)),
		Category:    strings.TrimSpace(f.FoodCategory),
		ServingSize: 100,
		ServingUnit: normalizeUnit(f.ServingSizeUnit),
	}
	for _, n := range f.FoodNutrients {
		switch strings.ToLower(strings.TrimSpace(n.NutrientName)) {
		case "energy":
			if u := strings.ToLower(n.UnitName); u == "" || u == "kcal" {
				item.Calories = n.Value
			}
		case "protein":
			item.ProteinG = n.Value
		case "carbohydrate, by difference":
			item.CarbsG = n.Value
		case "total lipid (fat)":
			item.FatG = n.Value
		case "fiber, total dietary":
			item.FiberG = n.Value
		case "sugars, total including nlea", "sugars, total":
			item.SugarG = n.Value
		}
	}
	return item
}

func normalizeUnit(unit string) string {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "ml", "mlt":
		return "ml"
	default:
		return "g"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type searchRequest struct {
	Query    string   `json:"query"`
	DataType []string `json:"dataType"`
	PageSize int      `json:"pageSize"`
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID           int64          `json:"fdcId"`
	Description     string         `json:"description"`
	BrandOwner      string         `json:"brandOwner"`
	BrandName       string         `json:"brandName"`
	FoodCategory    string         `json:"foodCategory"`
	GTINUPC         string         `json:"gtinUpc"`
	ServingSizeUnit string         `json:"servingSizeUnit"`
	FoodNutrients   []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
