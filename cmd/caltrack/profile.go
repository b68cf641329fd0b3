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

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your body profile and derived targets",
}

var (
	profName     string
	profEmail    string
	profAge      int
	profSex      string
	profHeight   float64
	profWeight   float64
	profActivity string
	profGoal     string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace the profile and recompute targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.ProfileInput{
			Name:          profName,
			Email:         profEmail,
			Age:           profAge,
			Sex:           model.Sex(profSex),
			HeightCm:      profHeight,
			WeightKg:      profWeight,
			ActivityLevel: model.ActivityLevel(profActivity),
			Goal:          model.Goal(profGoal),
		}
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.SaveProfile(sqldb, in, time.Now())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved profile")
			printTargets(cmd, nutrition.TargetsOf(*p), true)
			return nil
		})
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change selected profile fields and recompute targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch service.ProfilePatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			patch.Name = &profName
		}
		if flags.Changed("email") {
			patch.Email = &profEmail
		}
		if flags.Changed("age") {
			patch.Age = &profAge
		}
		if flags.Changed("sex") {
			v := model.Sex(profSex)
			patch.Sex = &v
		}
		if flags.Changed("height") {
			patch.HeightCm = &profHeight
		}
		if flags.Changed("weight") {
			patch.WeightKg = &profWeight
		}
		if flags.Changed("activity") {
			v := model.ActivityLevel(profActivity)
			patch.ActivityLevel = &v
		}
		if flags.Changed("goal") {
			v := model.Goal(profGoal)
			patch.Goal = &v
		}
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.UpdateProfile(sqldb, patch, time.Now())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Updated profile")
			printTargets(cmd, nutrition.TargetsOf(*p), true)
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.CurrentProfile(sqldb)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, p)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %s\n", p.ID)
			if p.Name != "" {
				fmt.Fprintf(out, "Name: %s\n", p.Name)
			}
			fmt.Fprintf(out, "Age: %d\nSex: %s\n", p.Age, p.Sex)
			fmt.Fprintf(out, "Height: %.1f cm\nWeight: %.1f kg\n", p.HeightCm, p.WeightKg)
			fmt.Fprintf(out, "Activity: %s\nGoal: %s\n", p.ActivityLevel, p.Goal)
			printTargets(cmd, nutrition.TargetsOf(*p), true)
			return nil
		})
	},
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Show daily calorie and macro targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(_ *sql.DB, s *service.Session) error {
			t, hasProfile := s.Targets()
			if jsonOut {
				return printJSON(cmd, map[string]any{"targets": t, "has_profile": hasProfile})
			}
			printTargets(cmd, t, hasProfile)
			return nil
		})
	},
}

func printTargets(cmd *cobra.Command, t nutrition.Targets, hasProfile bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Targets: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", t.Calories, t.ProteinG, t.CarbsG, t.FatG)
	if !hasProfile {
		fmt.Fprintln(out, "Using default targets; run `caltrack profile set` to personalize them")
	}
	if t.HasNegativeMacro() {
		fmt.Fprintln(out, "Warning: carb target is negative; the calorie target cannot cover protein and fat")
	}
}

func init() {
	rootCmd.AddCommand(profileCmd, targetsCmd)
	profileCmd.AddCommand(profileSetCmd, profileUpdateCmd, profileShowCmd)

	for _, c := range []*cobra.Command{profileSetCmd, profileUpdateCmd} {
		c.Flags().StringVar(&profName, "name", "", "Display name")
		c.Flags().StringVar(&profEmail, "email", "", "Email address")
		c.Flags().IntVar(&profAge, "age", 0, "Age in years")
		c.Flags().StringVar(&profSex, "sex", "", "male, female or other")
		c.Flags().Float64Var(&profHeight, "height", 0, "Height in cm")
		c.Flags().Float64Var(&profWeight, "weight", 0, "Weight in kg")
		c.Flags().StringVar(&profActivity, "activity", "sedentary", "sedentary, lightly_active, moderately_active, very_active or extra_active")
		c.Flags().StringVar(&profGoal, "goal", "maintain", "lose_weight, maintain, gain_weight or build_muscle")
	}
	_ = profileSetCmd.MarkFlagRequired("age")
	_ = profileSetCmd.MarkFlagRequired("sex")
	_ = profileSetCmd.MarkFlagRequired("height")
	_ = profileSetCmd.MarkFlagRequired("weight")
}
