package caltrack

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/nutrition"
	"github.com/saadjs/caltrack/internal/service"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage food entries",
}

// entryFlags holds the flag values shared by add and update.
type entryFlags struct {
	name        string
	brand       string
	barcode     string
	calories    float64
	protein     float64
	carbs       float64
	fat         float64
	fiber       float64
	sugar       float64
	sodium      float64
	servingSize float64
	servingUnit string
	quantity    float64
	servings    float64
	meal        string
	date        string
	time        string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "Food name")
	fl.StringVar(&f.brand, "brand", "", "Brand")
	fl.StringVar(&f.barcode, "barcode", "", "UPC/EAN barcode")
	fl.Float64Var(&f.calories, "calories", 0, "Calories per serving")
	fl.Float64Var(&f.protein, "protein", 0, "Protein grams per serving")
	fl.Float64Var(&f.carbs, "carbs", 0, "Carb grams per serving")
	fl.Float64Var(&f.fat, "fat", 0, "Fat grams per serving")
	fl.Float64Var(&f.fiber, "fiber", 0, "Fiber grams per serving")
	fl.Float64Var(&f.sugar, "sugar", 0, "Sugar grams per serving")
	fl.Float64Var(&f.sodium, "sodium", 0, "Sodium milligrams per serving")
	fl.Float64Var(&f.servingSize, "serving-size", 1, "Serving size the nutrients refer to")
	fl.StringVar(&f.servingUnit, "serving-unit", "serving", "Serving unit (g, ml, piece...)")
	fl.Float64Var(&f.quantity, "quantity", 0, "Amount eaten in serving units")
	fl.Float64Var(&f.servings, "servings", 0, "Number of servings eaten (overrides --quantity)")
	fl.StringVar(&f.meal, "meal", "", "breakfast, lunch, dinner or snack")
	fl.StringVar(&f.date, "date", "", "Date YYYY-MM-DD (default today)")
	fl.StringVar(&f.time, "time", "", "Time HH:MM (default now)")
}

func optionalFlag(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

// apply copies the flags onto in. With partial set, only changed flags are
// applied, so update keeps the stored values.
func (f *entryFlags) apply(cmd *cobra.Command, in *service.EntryInput, partial bool) error {
	changed := func(name string) bool { return !partial || cmd.Flags().Changed(name) }
	if changed("name") {
		in.Name = f.name
	}
	if changed("brand") {
		in.Brand = f.brand
	}
	if changed("barcode") {
		in.Barcode = f.barcode
	}
	if changed("calories") {
		in.Calories = f.calories
	}
	if changed("protein") {
		in.ProteinG = f.protein
	}
	if changed("carbs") {
		in.CarbsG = f.carbs
	}
	if changed("fat") {
		in.FatG = f.fat
	}
	if cmd.Flags().Changed("fiber") {
		in.FiberG = optionalFlag(cmd, "fiber", f.fiber)
	}
	if cmd.Flags().Changed("sugar") {
		in.SugarG = optionalFlag(cmd, "sugar", f.sugar)
	}
	if cmd.Flags().Changed("sodium") {
		in.SodiumMg = optionalFlag(cmd, "sodium", f.sodium)
	}
	if changed("serving-size") {
		in.ServingSize = f.servingSize
	}
	if changed("serving-unit") {
		in.ServingUnit = f.servingUnit
	}
	switch {
	case cmd.Flags().Changed("servings"):
		in.Quantity = nutrition.QuantityFromServings(f.servings, in.ServingSize)
	case cmd.Flags().Changed("quantity"):
		in.Quantity = f.quantity
	case !partial:
		in.Quantity = in.ServingSize
	}
	if changed("meal") {
		in.MealType = model.MealType(f.meal)
	}
	switch {
	case !partial:
		at, err := parseDateTimeOrNow(f.date, f.time)
		if err != nil {
			return err
		}
		in.ConsumedAt = at
	case cmd.Flags().Changed("date") || cmd.Flags().Changed("time"):
		at, err := mergeDateTime(f.date, f.time, in.ConsumedAt)
		if err != nil {
			return err
		}
		in.ConsumedAt = at
	}
	return nil
}

var addFlags, updateFlags entryFlags

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a food entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in service.EntryInput
		if err := addFlags.apply(cmd, &in, false); err != nil {
			return err
		}
		return withSession(func(sqldb *sql.DB, s *service.Session) error {
			in.UserID = s.UserID()
			id, err := service.CreateEntry(sqldb, in)
			if err != nil {
				return err
			}
			return showEntry(cmd, sqldb, id, "Added entry")
		})
	},
}

var (
	listDate   string
	listFrom   string
	listTo     string
	listMeal   string
	listSource string
	listQuery  string
	listLimit  int
)

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := service.ListEntriesFilter{
			MealType: model.MealType(listMeal),
			Source:   model.SourceType(listSource),
			Query:    listQuery,
			Limit:    listLimit,
		}
		if listDate != "" {
			day, err := service.ParseDate(listDate, time.Local)
			if err != nil {
				return err
			}
			f.From, f.To = service.DayBounds(day, time.Local)
		}
		if listFrom != "" {
			day, err := service.ParseDate(listFrom, time.Local)
			if err != nil {
				return err
			}
			f.From = day
		}
		if listTo != "" {
			day, err := service.ParseDate(listTo, time.Local)
			if err != nil {
				return err
			}
			_, f.To = service.DayBounds(day, time.Local)
		}
		return withDB(func(sqldb *sql.DB) error {
			entries, err := service.ListEntries(sqldb, f)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ID\tDATE\tMEAL\tNAME\tQTY\tKCAL\tP\tC\tF\tSOURCE")
			for _, e := range entries {
				t, err := nutrition.EntryTotals(e)
				if err != nil {
					return fmt.Errorf("entry %d: %w", e.ID, err)
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%.1f%s\t%.0f\t%.1f\t%.1f\t%.1f\t%s\n",
					e.ID, e.ConsumedAt.Local().Format("2006-01-02 15:04"), e.MealType, e.Name,
					e.Quantity, e.ServingUnit, t.Calories, t.ProteinG, t.CarbsG, t.FatG, e.SourceType)
			}
			return nil
		})
	},
}

var entryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			return showEntry(cmd, sqldb, id, "")
		})
	},
}

var entryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update selected fields of an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().NFlag() == 0 {
			return fmt.Errorf("set at least one flag")
		}
		return withDB(func(sqldb *sql.DB) error {
			existing, err := service.GetEntry(sqldb, id)
			if err != nil {
				return err
			}
			in := service.EntryInputFrom(*existing)
			if err := updateFlags.apply(cmd, &in, true); err != nil {
				return err
			}
			if err := service.UpdateEntry(sqldb, id, in); err != nil {
				return err
			}
			return showEntry(cmd, sqldb, id, "Updated entry")
		})
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteEntry(sqldb, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d\n", id)
			return nil
		})
	},
}

var duplicateNow bool

var entryDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Copy an entry, optionally restamped to now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		var opts service.DuplicateEntryOptions
		if duplicateNow {
			now := time.Now()
			opts.Now = &now
		}
		return withDB(func(sqldb *sql.DB) error {
			newID, err := service.DuplicateEntry(sqldb, id, opts)
			if err != nil {
				return err
			}
			return showEntry(cmd, sqldb, newID, "Duplicated entry")
		})
	},
}

func showEntry(cmd *cobra.Command, sqldb *sql.DB, id int64, headline string) error {
	e, err := service.GetEntry(sqldb, id)
	if err != nil {
		return err
	}
	t, err := nutrition.EntryTotals(*e)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cmd, map[string]any{"entry": e, "totals": t})
	}
	out := cmd.OutOrStdout()
	if headline != "" {
		fmt.Fprintf(out, "%s %d\n", headline, e.ID)
	}
	fmt.Fprintf(out, "ID: %d\n", e.ID)
	fmt.Fprintf(out, "Date: %s\n", e.ConsumedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Meal: %s\n", e.MealType)
	fmt.Fprintf(out, "Name: %s\n", e.Name)
	if e.Brand != "" {
		fmt.Fprintf(out, "Brand: %s\n", e.Brand)
	}
	fmt.Fprintf(out, "Per serving: %.0f kcal | P %.1fg | C %.1fg | F %.1fg (%.1f%s)\n",
		e.Calories, e.ProteinG, e.CarbsG, e.FatG, e.ServingSize, e.ServingUnit)
	fmt.Fprintf(out, "Eaten: %.1f%s\n", e.Quantity, e.ServingUnit)
	fmt.Fprintf(out, "Total: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", t.Calories, t.ProteinG, t.CarbsG, t.FatG)
	fmt.Fprintf(out, "Fiber: %s | Sugar: %s | Sodium: %s\n", fmtOptional(e.FiberG, "g"), fmtOptional(e.SugarG, "g"), fmtOptional(e.SodiumMg, "mg"))
	fmt.Fprintf(out, "Source: %s\n", e.SourceType)
	return nil
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd, entryListCmd, entryShowCmd, entryUpdateCmd, entryDeleteCmd, entryDuplicateCmd)

	addFlags.register(entryAddCmd)
	_ = entryAddCmd.MarkFlagRequired("name")
	_ = entryAddCmd.MarkFlagRequired("meal")
	updateFlags.register(entryUpdateCmd)

	entryListCmd.Flags().StringVar(&listDate, "date", "", "Only this day (YYYY-MM-DD)")
	entryListCmd.Flags().StringVar(&listFrom, "from", "", "From day inclusive (YYYY-MM-DD)")
	entryListCmd.Flags().StringVar(&listTo, "to", "", "To day inclusive (YYYY-MM-DD)")
	entryListCmd.Flags().StringVar(&listMeal, "meal", "", "Filter by meal")
	entryListCmd.Flags().StringVar(&listSource, "source", "", "Filter by source (manual, scanned, searched, detected)")
	entryListCmd.Flags().StringVar(&listQuery, "q", "", "Name contains")
	entryListCmd.Flags().IntVar(&listLimit, "limit", 50, "Max rows")

	entryDuplicateCmd.Flags().BoolVar(&duplicateNow, "now", false, "Stamp the copy with the current time")
}
