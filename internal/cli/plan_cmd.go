package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dont-get-fat/internal/app"
	"dont-get-fat/internal/mealplan"
)

func newPlanCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate and edit the meal plan",
	}

	cmd.AddCommand(
		newPlanGenerateCmd(a),
		newPlanShowCmd(a),
		newPlanClearCmd(a),
		newPlanRegenerateCmd(a),
		newPlanImportCmd(a),
		newPlanHistoryCmd(a),
		newPlanRestoreCmd(a),
	)

	return cmd
}

func newPlanGenerateCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new plan from your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Session.Plan() != nil && !yes {
				if !a.interactive() {
					return errors.New("a meal plan already exists, pass --yes to replace it")
				}
				if !confirm(cmd, "Replace the current plan and reset the grocery list? [y/N] ") {
					fmt.Fprintln(cmd.OutOrStdout(), "Keeping the current plan.")
					return nil
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Generating meal plan...")
			plan, err := a.Session.GenerateMealPlan(cmd.Context())
			if err != nil {
				return errors.New(app.UserMessage(err))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatPlan(plan))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Replace an existing plan without asking")
	return cmd
}

func newPlanShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatPlan(a.Session.Plan()))
			return nil
		},
	}
}

func newPlanClearCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the current plan and its grocery list",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Session.SetPlan(nil)
			fmt.Fprintln(cmd.OutOrStdout(), "Meal plan cleared.")
			return nil
		},
	}
}

func newPlanRegenerateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <day-meal>...",
		Short: "Replace selected meals, e.g. 0-1 2-0",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args)
			if err != nil {
				return err
			}
			if err := a.Session.RegenerateSelectedMeals(cmd.Context(), refs); err != nil {
				return errors.New(app.UserMessage(err))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatPlan(a.Session.Plan()))
			return nil
		},
	}
}

func newPlanImportCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <day-meal> <url>",
		Short: "Replace a meal with a recipe from the web",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := mealplan.ParseMealRef(args[0])
			if err != nil {
				return err
			}
			meal, err := a.Session.ImportMeal(cmd.Context(), ref, args[1])
			if err != nil {
				return errors.New(app.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s on day %d.\n", meal.Name, meal.Type, ref.Day+1)
			return nil
		},
	}
}

func newPlanHistoryCmd(a *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently generated plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.History == nil {
				return errors.New("plan history is not available")
			}
			entries, err := a.History.ListRecentByUserID(cmd.Context(), a.UserID, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plans generated yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d days, %d meals\n",
					e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), len(e.Plan.Days), e.Plan.MealCount())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of plans to list")
	return cmd
}

func newPlanRestoreCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Make a plan from history the current plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.History == nil {
				return errors.New("plan history is not available")
			}
			entry, err := a.History.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entry == nil || entry.UserID != a.UserID {
				return fmt.Errorf("plan %s not found", args[0])
			}
			a.Session.SetPlan(entry.Plan)
			fmt.Fprint(cmd.OutOrStdout(), formatPlan(a.Session.Plan()))
			return nil
		},
	}
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprint(cmd.OutOrStdout(), question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
