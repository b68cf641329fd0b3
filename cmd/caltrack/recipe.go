package caltrack

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/service"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Manage recipes",
}

var (
	recipeName         string
	recipeInstructions string
	recipeServings     int
	recipePrep         int
	recipeCook         int
	recipeImage        string
	recipeFavorite     bool
	recipeIngredients  []string
)

var recipeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a recipe",
	Example: `  caltrack recipe add --name Chili --servings 4 \
    --ingredient "Beans:400:g:400:24:60:2" --ingredient "Beef:500:g:800:80:0:50"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.RecipeInput{
			Name:         recipeName,
			Instructions: recipeInstructions,
			Servings:     recipeServings,
			PrepMinutes:  recipePrep,
			CookMinutes:  recipeCook,
			ImageRef:     recipeImage,
			IsFavorite:   recipeFavorite,
		}
		for _, raw := range recipeIngredients {
			ing, err := parseIngredientSpec(raw)
			if err != nil {
				return err
			}
			in.Ingredients = append(in.Ingredients, ing)
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.CreateRecipe(sqldb, in)
			if err != nil {
				return err
			}
			return showRecipe(cmd, sqldb, strconv.FormatInt(id, 10), "Created recipe")
		})
	},
}

var recipeUpdateCmd = &cobra.Command{
	Use:   "update <id|name>",
	Short: "Update recipe fields, keeping its ingredients",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			r, err := service.ResolveRecipe(sqldb, args[0])
			if err != nil {
				return err
			}
			in := service.RecipeInput{
				Name:         r.Name,
				Instructions: r.Instructions,
				Servings:     r.Servings,
				PrepMinutes:  r.PrepMinutes,
				CookMinutes:  r.CookMinutes,
				ImageRef:     r.ImageRef,
				IsFavorite:   r.IsFavorite,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = recipeName
			}
			if flags.Changed("instructions") {
				in.Instructions = recipeInstructions
			}
			if flags.Changed("servings") {
				in.Servings = recipeServings
			}
			if flags.Changed("prep") {
				in.PrepMinutes = recipePrep
			}
			if flags.Changed("cook") {
				in.CookMinutes = recipeCook
			}
			if flags.Changed("image") {
				in.ImageRef = recipeImage
			}
			if flags.Changed("favorite") {
				in.IsFavorite = recipeFavorite
			}
			if flags.Changed("ingredient") {
				for _, raw := range recipeIngredients {
					ing, err := parseIngredientSpec(raw)
					if err != nil {
						return err
					}
					in.Ingredients = append(in.Ingredients, ing)
				}
			} else {
				for _, ing := range r.Ingredients {
					in.Ingredients = append(in.Ingredients, service.IngredientInput{
						Name: ing.Name, Amount: ing.Amount, Unit: ing.Unit,
						Calories: ing.Calories, ProteinG: ing.ProteinG, CarbsG: ing.CarbsG, FatG: ing.FatG,
					})
				}
			}
			id := strconv.FormatInt(r.ID, 10)
			if err := service.UpdateRecipe(sqldb, id, in); err != nil {
				return err
			}
			return showRecipe(cmd, sqldb, id, "Updated recipe")
		})
	},
}

var recipeFavoritesOnly bool

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			recipes, err := service.ListRecipes(sqldb, recipeFavoritesOnly)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, recipes)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tSERVINGS\tFAVORITE")
			for _, r := range recipes {
				fav := ""
				if r.IsFavorite {
					fav = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\t%s\n", r.ID, r.Name, r.Servings, fav)
			}
			return nil
		})
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show recipe details and nutrition per serving",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			return showRecipe(cmd, sqldb, args[0], "")
		})
	},
}

var recipeDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete a recipe and its ingredients",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteRecipe(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted recipe %s\n", args[0])
			return nil
		})
	},
}

var unfavorite bool

var recipeFavoriteCmd = &cobra.Command{
	Use:   "favorite <id|name>",
	Short: "Mark a recipe as favorite (or --off to clear)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.SetRecipeFavorite(sqldb, args[0], !unfavorite); err != nil {
				return err
			}
			state := "favorite"
			if unfavorite {
				state = "not favorite"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recipe %s is %s\n", args[0], state)
			return nil
		})
	},
}

var (
	logServings float64
	logMeal     string
	logDate     string
	logTime     string
)

var recipeLogCmd = &cobra.Command{
	Use:   "log <id|name>",
	Short: "Log servings of a recipe as a food entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseDateTimeOrNow(logDate, logTime)
		if err != nil {
			return err
		}
		return withSession(func(sqldb *sql.DB, s *service.Session) error {
			id, err := service.LogRecipe(sqldb, service.LogRecipeInput{
				RecipeIdentifier: args[0],
				Servings:         logServings,
				MealType:         model.MealType(logMeal),
				ConsumedAt:       at,
				UserID:           s.UserID(),
			})
			if err != nil {
				return err
			}
			return showEntry(cmd, sqldb, id, "Logged entry")
		})
	},
}

var recipeIngredientCmd = &cobra.Command{
	Use:   "ingredient",
	Short: "Manage recipe ingredients",
}

var (
	ingName     string
	ingAmount   float64
	ingUnit     string
	ingCalories float64
	ingProtein  float64
	ingCarbs    float64
	ingFat      float64
	ingSearch   string
	ingProvider string
	ingDensity  float64
)

var recipeIngredientAddCmd = &cobra.Command{
	Use:   "add <recipe id|name>",
	Short: "Add an ingredient by hand or from a food search",
	Long: "Add an ingredient. With --search, nutrients come from the best search match, " +
		"scaled from its serving to --amount/--unit (use --density for mass/volume conversion).",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.IngredientInput{
			Name:     ingName,
			Amount:   ingAmount,
			Unit:     ingUnit,
			Calories: ingCalories,
			ProteinG: ingProtein,
			CarbsG:   ingCarbs,
			FatG:     ingFat,
		}
		return withDB(func(sqldb *sql.DB) error {
			if ingSearch != "" {
				fromSearch, err := ingredientFromSearch(cmd.Context(), sqldb)
				if err != nil {
					return err
				}
				in = fromSearch
			}
			id, err := service.AddRecipeIngredient(sqldb, args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added ingredient %d (%s)\n", id, in.Name)
			return nil
		})
	},
}

var recipeIngredientRemoveCmd = &cobra.Command{
	Use:   "remove <ingredient id>",
	Short: "Remove an ingredient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("ingredient id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteRecipeIngredient(sqldb, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed ingredient %d\n", id)
			return nil
		})
	},
}

func ingredientFromSearch(ctx context.Context, sqldb *sql.DB) (service.IngredientInput, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	src, err := foodSource(ingProvider)
	if err != nil {
		return service.IngredientInput{}, err
	}
	results, err := service.SearchFoods(ctx, sqldb, src, ingSearch, service.FoodSearchOptions{Limit: 1, TTL: cfg.SearchCacheTTL})
	if err != nil {
		return service.IngredientInput{}, err
	}
	if len(results) == 0 {
		return service.IngredientInput{}, fmt.Errorf("no food matches %q: %w", ingSearch, service.ErrNotFound)
	}
	ing, err := service.IngredientFromFood(results[0].Food, ingAmount, ingUnit, ingDensity)
	if err != nil {
		return service.IngredientInput{}, err
	}
	if ingName != "" {
		ing.Name = ingName
	}
	return ing, nil
}

// parseIngredientSpec reads "name:amount:unit[:kcal[:protein[:carbs[:fat]]]]".
func parseIngredientSpec(raw string) (service.IngredientInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 || len(parts) > 7 {
		return service.IngredientInput{}, fmt.Errorf("invalid ingredient %q (expected name:amount:unit[:kcal:protein:carbs:fat])", raw)
	}
	nums := make([]float64, 5)
	for i, p := range append([]string{parts[1]}, parts[3:]...) {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return service.IngredientInput{}, fmt.Errorf("invalid number %q in ingredient %q", p, raw)
		}
		nums[i] = v
	}
	return service.IngredientInput{
		Name:     strings.TrimSpace(parts[0]),
		Amount:   nums[0],
		Unit:     strings.TrimSpace(parts[2]),
		Calories: nums[1],
		ProteinG: nums[2],
		CarbsG:   nums[3],
		FatG:     nums[4],
	}, nil
}

func showRecipe(cmd *cobra.Command, sqldb *sql.DB, idOrName, headline string) error {
	d, err := service.RecipeDetails(sqldb, idOrName)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cmd, d)
	}
	out := cmd.OutOrStdout()
	if headline != "" {
		fmt.Fprintf(out, "%s %d\n", headline, d.ID)
	}
	fmt.Fprintf(out, "ID: %d\nName: %s\nServings: %d\n", d.ID, d.Name, d.Servings)
	if d.PrepMinutes > 0 || d.CookMinutes > 0 {
		fmt.Fprintf(out, "Prep: %d min | Cook: %d min\n", d.PrepMinutes, d.CookMinutes)
	}
	fmt.Fprintf(out, "Total: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", d.Totals.Calories, d.Totals.ProteinG, d.Totals.CarbsG, d.Totals.FatG)
	fmt.Fprintf(out, "Per serving: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", d.PerServing.Calories, d.PerServing.ProteinG, d.PerServing.CarbsG, d.PerServing.FatG)
	if len(d.Ingredients) > 0 {
		fmt.Fprintln(out, "ID\tINGREDIENT\tAMOUNT\tKCAL")
		for _, ing := range d.Ingredients {
			fmt.Fprintf(out, "%d\t%s\t%.1f %s\t%.0f\n", ing.ID, ing.Name, ing.Amount, ing.Unit, ing.Calories)
		}
	}
	if d.Instructions != "" {
		fmt.Fprintf(out, "Instructions:\n%s\n", d.Instructions)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(recipeCmd)
	recipeCmd.AddCommand(recipeAddCmd, recipeUpdateCmd, recipeListCmd, recipeShowCmd, recipeDeleteCmd, recipeFavoriteCmd, recipeLogCmd, recipeIngredientCmd)
	recipeIngredientCmd.AddCommand(recipeIngredientAddCmd, recipeIngredientRemoveCmd)

	for _, c := range []*cobra.Command{recipeAddCmd, recipeUpdateCmd} {
		c.Flags().StringVar(&recipeName, "name", "", "Recipe name")
		c.Flags().StringVar(&recipeInstructions, "instructions", "", "Preparation steps")
		c.Flags().IntVar(&recipeServings, "servings", 1, "Servings the recipe makes")
		c.Flags().IntVar(&recipePrep, "prep", 0, "Prep time in minutes")
		c.Flags().IntVar(&recipeCook, "cook", 0, "Cook time in minutes")
		c.Flags().StringVar(&recipeImage, "image", "", "Image path or URL")
		c.Flags().BoolVar(&recipeFavorite, "favorite", false, "Mark as favorite")
		c.Flags().StringArrayVar(&recipeIngredients, "ingredient", nil, "Ingredient name:amount:unit[:kcal:protein:carbs:fat] (repeatable)")
	}
	_ = recipeAddCmd.MarkFlagRequired("name")

	recipeListCmd.Flags().BoolVar(&recipeFavoritesOnly, "favorites", false, "Only favorite recipes")
	recipeFavoriteCmd.Flags().BoolVar(&unfavorite, "off", false, "Clear the favorite flag")

	recipeLogCmd.Flags().Float64Var(&logServings, "servings", 1, "Servings eaten")
	recipeLogCmd.Flags().StringVar(&logMeal, "meal", "", "breakfast, lunch, dinner or snack")
	recipeLogCmd.Flags().StringVar(&logDate, "date", "", "Date YYYY-MM-DD (default today)")
	recipeLogCmd.Flags().StringVar(&logTime, "time", "", "Time HH:MM (default now)")
	_ = recipeLogCmd.MarkFlagRequired("meal")

	fl := recipeIngredientAddCmd.Flags()
	fl.StringVar(&ingName, "name", "", "Ingredient name")
	fl.Float64Var(&ingAmount, "amount", 0, "Amount used")
	fl.StringVar(&ingUnit, "unit", "g", "Unit of --amount")
	fl.Float64Var(&ingCalories, "calories", 0, "Calories for the amount")
	fl.Float64Var(&ingProtein, "protein", 0, "Protein grams for the amount")
	fl.Float64Var(&ingCarbs, "carbs", 0, "Carb grams for the amount")
	fl.Float64Var(&ingFat, "fat", 0, "Fat grams for the amount")
	fl.StringVar(&ingSearch, "search", "", "Take nutrients from the best food search match")
	fl.StringVar(&ingProvider, "provider", "", "Search provider: edamam, openfoodfacts, usda or upcitemdb")
	fl.Float64Var(&ingDensity, "density", 0, "Density in g/ml for mass/volume conversion")
	_ = recipeIngredientAddCmd.MarkFlagRequired("amount")
}
