package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/metrics"
	"dont-get-fat/internal/shopping"
)

func formatPlan(plan *mealplan.MealPlan) string {
	if plan == nil {
		return "No meal plan yet. Run \"meal-planner plan generate\".\n"
	}

	var sb strings.Builder
	total := 0
	for d, day := range plan.Days {
		fmt.Fprintf(&sb, "Day %d\n", d+1)
		for m, meal := range day.Meals {
			fmt.Fprintf(&sb, "  [%d-%d] %-9s %s (%d min)\n", d, m, meal.Type, meal.Name, meal.EstimatedTime)
			total += meal.EstimatedTime
		}
	}
	fmt.Fprintf(&sb, "\nTotal prep: %d mins\n", total)
	return sb.String()
}

func formatGroceries(items []shopping.GroceryItem) string {
	if len(items) == 0 {
		return "Your grocery list is empty.\n"
	}

	var sb strings.Builder
	for i, group := range shopping.GroupByAisle(items) {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s\n", group.Aisle)
		for _, it := range group.Items {
			box := "[ ]"
			if it.Checked {
				box = "[x]"
			}
			fmt.Fprintf(&sb, "  %s %s", box, it.Item)
			if it.Quantity > 1 {
				fmt.Fprintf(&sb, " x%d", it.Quantity)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatUsage(rows []metrics.DailyUsage) string {
	if len(rows) == 0 {
		return "No usage recorded yet.\n"
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPROMPT\tCOMPLETION\tCALLS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", r.Date, r.TotalPrompt, r.TotalCompletion, r.TotalExecution)
	}
	w.Flush()
	return sb.String()
}
