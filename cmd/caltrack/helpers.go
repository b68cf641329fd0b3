package caltrack

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/caltrack/internal/app"
	"github.com/saadjs/caltrack/internal/db"
	"github.com/saadjs/caltrack/internal/logger"
	"github.com/saadjs/caltrack/internal/provider/edamam"
	"github.com/saadjs/caltrack/internal/provider/openfoodfacts"
	"github.com/saadjs/caltrack/internal/provider/upcitemdb"
	"github.com/saadjs/caltrack/internal/provider/usda"
	"github.com/saadjs/caltrack/internal/recognition"
	"github.com/saadjs/caltrack/internal/service"
)

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return app.DefaultDBPath()
}

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.OpenMigrated(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()
	return run(sqldb)
}

// withSession is withDB plus the current profile and settings.
func withSession(run func(*sql.DB, *service.Session) error) error {
	return withDB(func(sqldb *sql.DB) error {
		s, err := service.LoadSession(sqldb)
		if err != nil {
			return err
		}
		return run(sqldb, s)
	})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

func parseDateTimeOrNow(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return time.Now(), nil
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

// mergeDateTime replaces the date and/or clock of base (in local time) with
// the given flags. An empty flag keeps that half of base.
func mergeDateTime(date, timeStr string, base time.Time) (time.Time, error) {
	base = base.In(time.Local)
	y, m, d := base.Date()
	hh, mm, ss := base.Clock()
	ns := base.Nanosecond()
	if date = strings.TrimSpace(date); date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		y, m, d = t.Date()
	}
	if timeStr = strings.TrimSpace(timeStr); timeStr != "" {
		t, err := time.Parse("15:04", timeStr)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --time %q (expected HH:MM)", timeStr)
		}
		hh, mm, ss, ns = t.Hour(), t.Minute(), 0, 0
	}
	return time.Date(y, m, d, hh, mm, ss, ns, time.Local), nil
}

func edamamClient() *edamam.Client {
	if cfg == nil || !cfg.EdamamConfigured() {
		return nil
	}
	return &edamam.Client{
		AppID:      cfg.Edamam.AppID,
		AppKey:     cfg.Edamam.AppKey,
		BaseURL:    cfg.Edamam.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Edamam.Timeout},
	}
}

func offClient() *openfoodfacts.Client {
	return &openfoodfacts.Client{HTTPClient: &http.Client{Timeout: 12 * time.Second}}
}

func usdaClient() *usda.Client {
	if cfg == nil || !cfg.USDAConfigured() {
		return nil
	}
	return &usda.Client{
		APIKey:     cfg.USDA.APIKey,
		BaseURL:    cfg.USDA.BaseURL,
		HTTPClient: &http.Client{Timeout: 12 * time.Second},
	}
}

func upcClient() *upcitemdb.Client {
	c := &upcitemdb.Client{HTTPClient: &http.Client{Timeout: 12 * time.Second}}
	if cfg != nil {
		c.APIKey, c.APIKeyType = cfg.UPCItemDB.APIKey, cfg.UPCItemDB.APIKeyType
	}
	return c
}

func barcodeClients() service.BarcodeClients {
	return service.BarcodeClients{
		Edamam:        edamamClient(),
		OpenFoodFacts: offClient(),
		USDA:          usdaClient(),
		UPCItemDB:     upcClient(),
	}
}

// foodSource prefers Edamam when no provider is named and falls back to Open
// Food Facts, which needs no credentials.
func foodSource(provider string) (service.FoodSource, error) {
	p, err := service.ParseBarcodeProvider(provider)
	if err != nil {
		return nil, err
	}
	if provider == "" && edamamClient() == nil {
		p = service.BarcodeProviderOpenFoodFacts
	}
	switch p {
	case service.BarcodeProviderEdamam:
		ed := edamamClient()
		if ed == nil {
			return nil, fmt.Errorf("edamam search %w: set EDAMAM_APP_ID and EDAMAM_APP_KEY", service.ErrNotConfigured)
		}
		return service.EdamamSource{Client: ed}, nil
	case service.BarcodeProviderOpenFoodFacts:
		return service.OpenFoodFactsSource{Client: offClient()}, nil
	case service.BarcodeProviderUSDA:
		fdc := usdaClient()
		if fdc == nil {
			return nil, fmt.Errorf("usda search %w: set USDA_API_KEY", service.ErrNotConfigured)
		}
		return service.USDASource{Client: fdc}, nil
	case service.BarcodeProviderUPCItemDB:
		return service.UPCItemDBSource{Client: upcClient()}, nil
	default:
		return nil, fmt.Errorf("search provider %q is not supported", p)
	}
}

func barcodeLookup(p service.BarcodeProvider) (service.BarcodeLookup, error) {
	return service.NewBarcodeLookup(p, barcodeClients())
}

// detector builds the recognizer named by the detect.provider setting.
func detector(ctx context.Context, name string) (recognition.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", service.DetectProviderMock:
		return recognition.Mock{}, nil
	case service.DetectProviderRekognition:
		ed := edamamClient()
		if ed == nil {
			return nil, fmt.Errorf("rekognition detection %w: nutrients come from edamam", service.ErrNotConfigured)
		}
		return recognition.NewRekognition(ctx, cfg.AWS.Region, ed, logger.L())
	default:
		return nil, fmt.Errorf("unknown detect provider %q", name)
	}
}

func configuredDetector(ctx context.Context, sqldb *sql.DB, override string) (recognition.Provider, error) {
	name := override
	if name == "" {
		stored, _, err := service.GetConfig(sqldb, service.ConfigDetectProvider)
		if err != nil {
			return nil, err
		}
		name = stored
	}
	return detector(ctx, name)
}

func fmtOptional(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%s", *v, unit)
}
