package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dont-get-fat/internal/preferences"
	"dont-get-fat/internal/profile"
)

func newProfileCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your food profile",
	}
	cmd.AddCommand(newProfileShowCmd(a), newProfileSetCmd(a))
	return cmd
}

func newProfileShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored profile and the preferences derived from it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Profiles == nil {
				return errors.New("profiles are not available")
			}
			p, err := a.Profiles.Get(cmd.Context(), a.UserID)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), preferences.NoProfileMessage)
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Goals:            %s\n", orNone(strings.Join(p.Goals, ", ")))
			fmt.Fprintf(out, "Allergies:        %s\n", orNone(strings.Join(p.Allergies, ", ")))
			fmt.Fprintf(out, "Diet:             %s\n", orNone(p.DietaryChoice))
			fmt.Fprintf(out, "Dislikes:         %s\n", orNone(p.Dislikes))
			fmt.Fprintf(out, "Cooking time:     %s\n", orNone(p.CookingTime))
			fmt.Fprintf(out, "Household size:   %s\n", orNone(p.HouseholdSize))
			fmt.Fprintf(out, "Meals per day:    %s\n", orNone(p.MealsPerDay))
			fmt.Fprintf(out, "Cooking days:     %s\n", orNone(p.CookingDaysPerWeek))
			fmt.Fprintf(out, "Cuisines:         %s\n", orNone(strings.Join(p.FavoriteCuisines, ", ")))

			if prefs, err := preferences.Resolve(p); err == nil {
				fmt.Fprintf(out, "\nPlanning for a %s diet, %d servings.\n", prefs.Diet, prefs.Servings)
			} else {
				fmt.Fprintf(out, "\n%v\n", err)
			}
			return nil
		},
	}
}

func newProfileSetCmd(a *App) *cobra.Command {
	var (
		goals, allergies, cuisines              []string
		diet, dislikes, cookingTime, household  string
		mealsPerDay, cookingDays, favoriteMeals string
		batch                                   bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the profile; only the given flags change",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Profiles == nil {
				return errors.New("profiles are not available")
			}
			p, err := a.Profiles.Get(cmd.Context(), a.UserID)
			if err != nil {
				return err
			}
			if p == nil {
				p = &profile.Profile{ID: a.UserID}
			}

			flags := cmd.Flags()
			if flags.Changed("goals") {
				p.Goals = goals
			}
			if flags.Changed("allergies") {
				p.Allergies = allergies
			}
			if flags.Changed("cuisines") {
				p.FavoriteCuisines = cuisines
			}
			if flags.Changed("diet") {
				p.DietaryChoice = diet
			}
			if flags.Changed("dislikes") {
				p.Dislikes = dislikes
			}
			if flags.Changed("cooking-time") {
				p.CookingTime = cookingTime
			}
			if flags.Changed("household-size") {
				p.HouseholdSize = household
			}
			if flags.Changed("meals-per-day") {
				p.MealsPerDay = mealsPerDay
			}
			if flags.Changed("cooking-days") {
				p.CookingDaysPerWeek = cookingDays
			}
			if flags.Changed("favorite-meals") {
				p.FavoriteMeals = favoriteMeals
			}
			if flags.Changed("batch-cooking") {
				p.BatchCooking = batch
			}

			if err := a.Profiles.Upsert(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile saved.")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&goals, "goals", nil, "Health goals, comma separated")
	f.StringSliceVar(&allergies, "allergies", nil, "Allergies, comma separated")
	f.StringSliceVar(&cuisines, "cuisines", nil, "Favorite cuisines, comma separated")
	f.StringVar(&diet, "diet", "", "Dietary choice, e.g. vegetarian")
	f.StringVar(&dislikes, "dislikes", "", "Foods to avoid")
	f.StringVar(&cookingTime, "cooking-time", "", "Time available for cooking")
	f.StringVar(&household, "household-size", "", "Household bucket, e.g. \"Two people (2)\"")
	f.StringVar(&mealsPerDay, "meals-per-day", "", "Meals per day, e.g. 3")
	f.StringVar(&cookingDays, "cooking-days", "", "Cooking days per week, e.g. 5")
	f.StringVar(&favoriteMeals, "favorite-meals", "", "Meals you like")
	f.BoolVar(&batch, "batch-cooking", false, "Prefer batch cooking")
	return cmd
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
