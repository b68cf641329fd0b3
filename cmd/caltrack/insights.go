package caltrack

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/caltrack/internal/nutrition"
	"github.com/saadjs/caltrack/internal/service"
)

var (
	insightsRange  string
	insightsMetric string
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show trends, streak and on-track days",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := nutrition.ParseTimeRange(insightsRange)
		if err != nil {
			return err
		}
		m, err := nutrition.ParseMetric(insightsMetric)
		if err != nil {
			return err
		}
		return withSession(func(sqldb *sql.DB, s *service.Session) error {
			report, err := service.Insights(sqldb, s, service.InsightsOptions{
				Range:    r,
				Metric:   m,
				Now:      time.Now(),
				Location: time.Local,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Range: %s (%s to %s)\n", report.Range, report.From, report.To)
			fmt.Fprintf(out, "Average/day: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n",
				report.AveragePerDay.Calories, report.AveragePerDay.ProteinG, report.AveragePerDay.CarbsG, report.AveragePerDay.FatG)
			fmt.Fprintf(out, "Days logged: %d\n", report.DaysLogged)
			fmt.Fprintf(out, "On track: %d days (target %.0f kcal +/- %.0f%%)\n", report.DaysOnTrack, report.CalorieTarget, report.Tolerance*100)
			fmt.Fprintf(out, "Current streak: %d days\n", report.CurrentStreak)
			if report.FavoriteFood != "" {
				fmt.Fprintf(out, "Favorite: %s (x%d)\n", report.FavoriteFood, report.FavoriteCount)
			}
			if report.ProteinChampion {
				fmt.Fprintf(out, "Protein champion: %.1fg per entry\n", report.ProteinPerEntry)
			}
			if report.HighestDay != nil {
				fmt.Fprintf(out, "Highest day: %s\n", formatDayTotal(*report.HighestDay))
			}
			if report.LowestDay != nil {
				fmt.Fprintf(out, "Lowest day: %s\n", formatDayTotal(*report.LowestDay))
			}
			fmt.Fprintf(out, "\nDAY\t%s\n", report.Metric)
			for _, p := range report.Series {
				fmt.Fprintf(out, "%s\t%.1f\n", p.Day.Format("2006-01-02"), p.Value)
			}
			return nil
		})
	},
}

func formatDayTotal(d service.DayTotal) string {
	return fmt.Sprintf("%s %.0f kcal", d.Date, d.Calories)
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().StringVar(&insightsRange, "range", "week", "week, month or three_months")
	insightsCmd.Flags().StringVar(&insightsMetric, "metric", "calories", "calories, protein, carbs, fat or weight")
}
