// Package edamam queries the Edamam Food Database parser endpoint.
package edamam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saadjs/caltrack/internal/model"
)

const (
	defaultBaseURL = "https://api.edamam.com"
	parserPath     = "/api/food-database/v2/parser"

	// Edamam nutrients are per 100 g of the food.
	referenceServing = 100.0
	referenceUnit    = "g"
)

var (
	ErrInvalidQuery      = errors.New("invalid search query")
	ErrInvalidURL        = errors.New("invalid url")
	ErrNoData            = errors.New("no data received")
	ErrFoodNotFound      = errors.New("food not found")
	ErrUnauthorized      = errors.New("invalid api credentials")
	ErrRateLimitExceeded = errors.New("api rate limit exceeded")
)

type Client struct {
	AppID      string
	AppKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// SearchResult holds the parser's exact matches and its looser hints.
type SearchResult struct {
	Parsed []model.FoodItem `json:"parsed"`
	Hints  []model.FoodItem `json:"hints,omitempty"`
}

// Foods returns parsed matches followed by hints, skipping repeated food IDs.
func (r SearchResult) Foods() []model.FoodItem {
	seen := make(map[string]bool, len(r.Parsed)+len(r.Hints))
	out := make([]model.FoodItem, 0, len(r.Parsed)+len(r.Hints))
	for _, group := range [][]model.FoodItem{r.Parsed, r.Hints} {
		for _, f := range group {
			if f.FoodID != "" && seen[f.FoodID] {
				continue
			}
			seen[f.FoodID] = true
			out = append(out, f)
		}
	}
	return out
}

func (c *Client) SearchFood(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, ErrInvalidQuery
	}
	endpoint, err := c.endpoint(query)
	if err != nil {
		return SearchResult{}, err
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return SearchResult{}, fmt.Errorf("create edamam request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("execute edamam request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SearchResult{}, fmt.Errorf("read edamam response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return SearchResult{}, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return SearchResult{}, ErrRateLimitExceeded
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return SearchResult{}, fmt.Errorf("edamam request failed with status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return SearchResult{}, ErrNoData
	}

	var parsed parserResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return SearchResult{}, fmt.Errorf("decode edamam response: %w", err)
	}
	out := SearchResult{Parsed: make([]model.FoodItem, 0, len(parsed.Parsed))}
	for _, p := range parsed.Parsed {
		out.Parsed = append(out.Parsed, p.Food.toModel())
	}
	for _, h := range parsed.Hints {
		out.Hints = append(out.Hints, h.Food.toModel())
	}
	return out, nil
}

// LookupBarcode searches for the code as a query and returns the first
// parsed match. Hints are not considered.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.FoodItem, error) {
	res, err := c.SearchFood(ctx, barcode)
	if err != nil {
		return model.FoodItem{}, err
	}
	if len(res.Parsed) == 0 {
		return model.FoodItem{}, fmt.Errorf("barcode %q: %w", strings.TrimSpace(barcode), ErrFoodNotFound)
	}
	return res.Parsed[0], nil
}

func (c *Client) endpoint(query string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	u, err := url.Parse(base + parserPath)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, c.BaseURL)
	}
	q := url.Values{}
	q.Set("app_id", c.AppID)
	q.Set("app_key", c.AppKey)
	q.Set("ingr", query)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type parserResponse struct {
	Parsed []struct {
		Food food `json:"food"`
	} `json:"parsed"`
	Hints []struct {
		Food food `json:"food"`
	} `json:"hints"`
}

type food struct {
	FoodID        string    `json:"foodId"`
	Label         string    `json:"label"`
	Brand         string    `json:"brand"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"categoryLabel"`
	Image         string    `json:"image"`
	Nutrients     nutrients `json:"nutrients"`
}

// Missing nutrients decode as 0.
type nutrients struct {
	EnercKcal float64 `json:"ENERC_KCAL"`
	Procnt    float64 `json:"PROCNT"`
	Fat       float64 `json:"FAT"`
	Chocdf    float64 `json:"CHOCDF"`
	Fibtg     float64 `json:"FIBTG"`
	Sugar     float64 `json:"SUGAR"`
}

func (f food) toModel() model.FoodItem {
	return model.FoodItem{
		FoodID:        f.FoodID,
		Label:         strings.TrimSpace(f.Label),
		Brand:         strings.TrimSpace(f.Brand),
		Category:      f.Category,
		CategoryLabel: f.CategoryLabel,
		Image:         f.Image,
		Calories:      f.Nutrients.EnercKcal,
		ProteinG:      f.Nutrients.Procnt,
		CarbsG:        f.Nutrients.Chocdf,
		FatG:          f.Nutrients.Fat,
		FiberG:        f.Nutrients.Fibtg,
		SugarG:        f.Nutrients.Sugar,
		ServingSize:   referenceServing,
		ServingUnit:   referenceUnit,
	}
}
