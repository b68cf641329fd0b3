package caltrack

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up nutrition data from food databases",
}

// logFlags are shared by commands that can turn a lookup into an entry.
type logFlags struct {
	meal     string
	servings float64
	quantity float64
	unit     string
	density  float64
	date     string
	time     string
}

func (f *logFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.meal, "log", "", "Log the result to this meal (breakfast, lunch, dinner, snack)")
	fl.Float64Var(&f.servings, "servings", 0, "Servings eaten when logging")
	fl.Float64Var(&f.quantity, "quantity", 0, "Amount eaten when logging")
	fl.StringVar(&f.unit, "unit", "", "Unit of --quantity (default the food's serving unit)")
	fl.Float64Var(&f.density, "density", 0, "Density in g/ml for mass/volume conversion")
	fl.StringVar(&f.date, "date", "", "Date YYYY-MM-DD when logging (default today)")
	fl.StringVar(&f.time, "time", "", "Time HH:MM when logging (default now)")
}

func (f *logFlags) options(s *service.Session, source model.SourceType) (service.FoodEntryOptions, error) {
	at, err := parseDateTimeOrNow(f.date, f.time)
	if err != nil {
		return service.FoodEntryOptions{}, err
	}
	return service.FoodEntryOptions{
		Servings:   f.servings,
		Quantity:   f.quantity,
		Unit:       f.unit,
		DensityGML: f.density,
		MealType:   model.MealType(f.meal),
		ConsumedAt: at,
		UserID:     s.UserID(),
		Source:     source,
	}, nil
}

var (
	searchProvider string
	searchLimit    int
	searchVerified bool
	searchRefresh  bool
	searchPick     int
	searchLog      logFlags
)

var lookupSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search foods by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		src, err := foodSource(searchProvider)
		if err != nil {
			return err
		}
		return withSession(func(sqldb *sql.DB, s *service.Session) error {
			results, err := service.SearchFoods(cmd.Context(), sqldb, src, query, service.FoodSearchOptions{
				Limit:        searchLimit,
				TTL:          cfg.SearchCacheTTL,
				VerifiedOnly: searchVerified,
				Refresh:      searchRefresh,
				Now:          time.Now(),
			})
			if err != nil {
				return err
			}
			if searchLog.meal != "" {
				if searchPick < 1 || searchPick > len(results) {
					return fmt.Errorf("--pick %d out of range (1-%d)", searchPick, len(results))
				}
				opts, err := searchLog.options(s, model.SourceSearched)
				if err != nil {
					return err
				}
				in, err := service.EntryFromFood(results[searchPick-1].Food, opts)
				if err != nil {
					return err
				}
				id, err := service.CreateEntry(sqldb, in)
				if err != nil {
					return err
				}
				return showEntry(cmd, sqldb, id, "Logged entry")
			}
			if jsonOut {
				return printJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No matches")
				return nil
			}
			if results[0].FromCache {
				fmt.Fprintf(out, "Provider: %s (cache)\n", src.Provider())
			} else {
				fmt.Fprintf(out, "Provider: %s (live)\n", src.Provider())
			}
			fmt.Fprintln(out, "#\tFOOD\tBRAND\tSERVING\tKCAL\tP\tC\tF\tCONFIDENCE")
			for i, r := range results {
				f := r.Food
				verified := ""
				if r.Confidence.IsVerified {
					verified = " verified"
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%.0f%s\t%.0f\t%.1f\t%.1f\t%.1f\t%.2f%s\n",
					i+1, f.Label, f.Brand, f.ServingSize, f.ServingUnit, f.Calories, f.ProteinG, f.CarbsG, f.FatG, r.Confidence.Score, verified)
			}
			return nil
		})
	},
}

var (
	barcodeProvider string
	barcodeLog      logFlags
)

var lookupBarcodeCmd = &cobra.Command{
	Use:   "barcode <code>",
	Short: "Look up a packaged food by UPC/EAN barcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, s *service.Session) error {
			name := barcodeProvider
			if name == "" {
				stored, _, err := service.GetConfig(sqldb, service.ConfigBarcodeProvider)
				if err != nil {
					return err
				}
				name = stored
			}
			provider, err := service.ParseBarcodeProvider(name)
			if err != nil {
				return err
			}
			lookup, err := barcodeLookup(provider)
			if err != nil {
				return err
			}
			scanned, err := service.LookupBarcode(cmd.Context(), provider, lookup, args[0])
			if err != nil {
				return err
			}
			if barcodeLog.meal != "" {
				opts, err := barcodeLog.options(s, model.SourceScanned)
				if err != nil {
					return err
				}
				opts.Barcode = scanned.Barcode
				in, err := service.EntryFromFood(scanned.Food, opts)
				if err != nil {
					return err
				}
				id, err := service.CreateEntry(sqldb, in)
				if err != nil {
					return err
				}
				return showEntry(cmd, sqldb, id, "Logged entry")
			}
			if jsonOut {
				return printJSON(cmd, scanned)
			}
			f := scanned.Food
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider: %s\n", scanned.Provider)
			fmt.Fprintf(out, "Barcode: %s\n", scanned.Barcode)
			fmt.Fprintf(out, "Food: %s\n", f.Label)
			if f.Brand != "" {
				fmt.Fprintf(out, "Brand: %s\n", f.Brand)
			}
			fmt.Fprintf(out, "Serving: %.1f %s\n", f.ServingSize, f.ServingUnit)
			fmt.Fprintf(out, "Calories: %.1f\nProtein: %.1fg\nCarbs: %.1fg\nFat: %.1fg\n", f.Calories, f.ProteinG, f.CarbsG, f.FatG)
			fmt.Fprintf(out, "Confidence: %.2f (verified=%t)\n", scanned.Confidence.Score, scanned.Confidence.IsVerified)
			return nil
		})
	},
}

var lookupCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "List cached search queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListSearchCache(sqldb, 100)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, items)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PROVIDER\tQUERY\tFETCHED\tEXPIRES")
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", it.Provider, it.QueryKey,
					it.FetchedAt.Local().Format("2006-01-02 15:04"), it.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

var lookupCachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cached searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			n, err := service.PurgeExpiredSearchCache(sqldb, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached search(es)\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.AddCommand(lookupSearchCmd, lookupBarcodeCmd, lookupCacheCmd)
	lookupCacheCmd.AddCommand(lookupCachePurgeCmd)

	lookupSearchCmd.Flags().StringVar(&searchProvider, "provider", "", "edamam, openfoodfacts, usda or upcitemdb (default edamam when configured)")
	lookupSearchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Max results")
	lookupSearchCmd.Flags().BoolVar(&searchVerified, "verified", false, "Only show verified matches")
	lookupSearchCmd.Flags().BoolVar(&searchRefresh, "refresh", false, "Bypass the search cache")
	lookupSearchCmd.Flags().IntVar(&searchPick, "pick", 1, "Result number to log with --log")
	searchLog.register(lookupSearchCmd)

	lookupBarcodeCmd.Flags().StringVar(&barcodeProvider, "provider", "", "edamam, openfoodfacts, usda, upcitemdb or mock (default from config)")
	barcodeLog.register(lookupBarcodeCmd)
}
