package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/provider/edamam"
	"github.com/saadjs/caltrack/internal/provider/openfoodfacts"
	"github.com/saadjs/caltrack/internal/provider/upcitemdb"
	"github.com/saadjs/caltrack/internal/provider/usda"
)

const DefaultSearchCacheTTL = 7 * 24 * time.Hour

// FoodSource is a remote food database that answers free-text queries.
type FoodSource interface {
	Provider() BarcodeProvider
	Search(ctx context.Context, query string, limit int) ([]model.FoodItem, error)
}

type EdamamSource struct {
	Client *edamam.Client
}

func (EdamamSource) Provider() BarcodeProvider { return BarcodeProviderEdamam }

func (s EdamamSource) Search(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	res, err := s.Client.SearchFood(ctx, query)
	if err != nil {
		return nil, err
	}
	foods := res.Foods()
	if limit > 0 && len(foods) > limit {
		foods = foods[:limit]
	}
	return foods, nil
}

type OpenFoodFactsSource struct {
	Client *openfoodfacts.Client
}

func (OpenFoodFactsSource) Provider() BarcodeProvider { return BarcodeProviderOpenFoodFacts }

func (s OpenFoodFactsSource) Search(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	foods, err := s.Client.SearchFoods(ctx, query, limit)
	if errors.Is(err, openfoodfacts.ErrProductNotFound) {
		return []model.FoodItem{}, nil
	}
	return foods, err
}

type USDASource struct {
	Client *usda.Client
}

func (USDASource) Provider() BarcodeProvider { return BarcodeProviderUSDA }

func (s USDASource) Search(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	foods, err := s.Client.SearchFoods(ctx, query, limit)
	if errors.Is(err, usda.ErrFoodNotFound) {
		return []model.FoodItem{}, nil
	}
	return foods, err
}

type UPCItemDBSource struct {
	Client *upcitemdb.Client
}

func (UPCItemDBSource) Provider() BarcodeProvider { return BarcodeProviderUPCItemDB }

func (s UPCItemDBSource) Search(ctx context.Context, query string, limit int) ([]model.FoodItem, error) {
	foods, err := s.Client.SearchFoods(ctx, query, limit)
	if errors.Is(err, upcitemdb.ErrProductNotFound) {
		return []model.FoodItem{}, nil
	}
	return foods, err
}

type FoodSearchResult struct {
	Provider   BarcodeProvider `json:"provider"`
	Food       model.FoodItem  `json:"food"`
	Confidence ConfidenceScore `json:"confidence"`
	FromCache  bool            `json:"from_cache"`
}

type FoodSearchOptions struct {
	Limit        int
	TTL          time.Duration
	VerifiedOnly bool
	// Refresh skips the cache read but still stores the fresh response.
	Refresh bool
	Now     time.Time
}

// SearchFoods queries src, serving repeated queries from food_search_cache
// until they expire. Results are ranked by confidence.
func SearchFoods(ctx context.Context, db *sql.DB, src FoodSource, query string, opts FoodSearchOptions) ([]FoodSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidf("search query is required")
	}
	if src == nil {
		return nil, fmt.Errorf("food search %w", ErrNotConfigured)
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Limit > 50 {
		opts.Limit = 50
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultSearchCacheTTL
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	provider := src.Provider()
	key := canonicalSearchKey(query)

	var foods []model.FoodItem
	fromCache := false
	if !opts.Refresh {
		cached, found, err := lookupSearchCache(db, provider, key, opts.Now)
		if err != nil {
			return nil, err
		}
		foods, fromCache = cached, found
	}
	if !fromCache {
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		fresh, err := src.Search(ctx, query, opts.Limit)
		if err != nil {
			return nil, fmt.Errorf("search %s for %q: %w", provider, query, err)
		}
		if err := upsertSearchCache(db, provider, key, fresh, opts.Now, opts.Now.Add(opts.TTL)); err != nil {
			return nil, err
		}
		foods = fresh
	}

	out := make([]FoodSearchResult, 0, len(foods))
	for _, f := range foods {
		r := FoodSearchResult{
			Provider:   provider,
			Food:       f,
			Confidence: ScoreSearchConfidence(provider, f, query, DefaultVerifiedMinScore),
			FromCache:  fromCache,
		}
		if opts.VerifiedOnly && !r.Confidence.IsVerified {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence.Score > out[j].Confidence.Score
	})
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// canonicalSearchKey folds case, punctuation and word order differences so
// equivalent queries share a cache row.
func canonicalSearchKey(query string) string {
	return strings.Join(tokenize(query), " ")
}

func lookupSearchCache(db *sql.DB, provider BarcodeProvider, key string, now time.Time) ([]model.FoodItem, bool, error) {
	var raw, expiresRaw string
	err := db.QueryRow(`
SELECT response_json, expires_at
FROM food_search_cache
WHERE provider = ? AND query_key = ?
`, string(provider), key).Scan(&raw, &expiresRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup food search cache: %w", err)
	}
	expiresAt, err := parseTime(expiresRaw)
	if err != nil {
		return nil, false, err
	}
	if !now.Before(expiresAt) {
		return nil, false, nil
	}
	var items []model.FoodItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false, fmt.Errorf("decode food search cache: %w", err)
	}
	return items, true, nil
}

func upsertSearchCache(db *sql.DB, provider BarcodeProvider, key string, items []model.FoodItem, fetchedAt, expiresAt time.Time) error {
	if items == nil {
		items = []model.FoodItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal food search cache payload: %w", err)
	}
	_, err = db.Exec(`
INSERT INTO food_search_cache(provider, query_key, response_json, fetched_at, expires_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(provider, query_key) DO UPDATE SET
  response_json=excluded.response_json,
  fetched_at=excluded.fetched_at,
  expires_at=excluded.expires_at
`, string(provider), key, string(payload), formatTime(fetchedAt), formatTime(expiresAt))
	if err != nil {
		return fmt.Errorf("upsert food search cache: %w", err)
	}
	return nil
}

type SearchCacheItem struct {
	Provider  BarcodeProvider `json:"provider"`
	QueryKey  string          `json:"query_key"`
	FetchedAt time.Time       `json:"fetched_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func ListSearchCache(db *sql.DB, limit int) ([]SearchCacheItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
SELECT provider, query_key, fetched_at, expires_at
FROM food_search_cache
ORDER BY fetched_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list food search cache: %w", err)
	}
	defer rows.Close()
	out := make([]SearchCacheItem, 0)
	for rows.Next() {
		var item SearchCacheItem
		var provider, fetched, expires string
		if err := rows.Scan(&provider, &item.QueryKey, &fetched, &expires); err != nil {
			return nil, fmt.Errorf("scan food search cache: %w", err)
		}
		item.Provider = BarcodeProvider(provider)
		if item.FetchedAt, err = parseTime(fetched); err != nil {
			return nil, err
		}
		if item.ExpiresAt, err = parseTime(expires); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate food search cache: %w", err)
	}
	return out, nil
}

// PurgeExpiredSearchCache deletes rows that expired at or before now and
// returns how many were removed.
func PurgeExpiredSearchCache(db *sql.DB, now time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM food_search_cache WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("purge food search cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read purged rows: %w", err)
	}
	return n, nil
}
