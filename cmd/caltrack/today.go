package caltrack

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/caltrack/internal/service"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the day's intake against your targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := time.Now()
		if todayDate != "" {
			parsed, err := service.ParseDate(todayDate, time.Local)
			if err != nil {
				return err
			}
			target = parsed
		}
		return withSession(func(sqldb *sql.DB, s *service.Session) error {
			sum, err := service.TodaySummary(sqldb, s, target, time.Local)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, sum)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date: %s\n", sum.Date)
			fmt.Fprintf(out, "Consumed: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", sum.Consumed.Calories, sum.Consumed.ProteinG, sum.Consumed.CarbsG, sum.Consumed.FatG)
			fmt.Fprintf(out, "Targets: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", sum.Targets.Calories, sum.Targets.ProteinG, sum.Targets.CarbsG, sum.Targets.FatG)
			fmt.Fprintf(out, "Remaining: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", sum.Remaining.Calories, sum.Remaining.ProteinG, sum.Remaining.CarbsG, sum.Remaining.FatG)
			if !sum.HasProfile {
				fmt.Fprintln(out, "Using default targets; run `caltrack profile set` to personalize them")
			}
			if sum.Warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", sum.Warning)
			}
			if sum.OnTrack {
				fmt.Fprintln(out, "On track")
			}
			for _, m := range sum.Meals {
				fmt.Fprintf(out, "\n%s (%.0f kcal)\n", m.MealType, m.Totals.Calories)
				for _, e := range m.Entries {
					fmt.Fprintf(out, "  %d\t%s\t%s\n", e.ID, e.ConsumedAt.Local().Format("15:04"), e.Name)
				}
			}
			if sum.EntryCount == 0 {
				fmt.Fprintln(out, "No entries logged")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
}
