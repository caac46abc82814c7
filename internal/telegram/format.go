package telegram

import (
	"fmt"
	"strings"

	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/metrics"
	"dont-get-fat/internal/shopping"
)

// maxMessageLen stays below Telegram's 4096 character limit.
const maxMessageLen = 4000

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func formatPlanMarkdown(plan *mealplan.MealPlan) string {
	if plan == nil || len(plan.Days) == 0 {
		return "📭 No meal plan yet. Send /plan to create one."
	}

	var sb strings.Builder
	sb.WriteString("📅 *Meal Plan*\n")
	total := 0
	for d, day := range plan.Days {
		fmt.Fprintf(&sb, "\n*Day %d*\n", day.Day)
		for m, meal := range day.Meals {
			fmt.Fprintf(&sb, "`%d-%d` %s: %s", d, m, capitalize(string(meal.Type)), escapeMarkdown(meal.Name))
			if meal.EstimatedTime > 0 {
				fmt.Fprintf(&sb, " (%d min)", meal.EstimatedTime)
				total += meal.EstimatedTime
			}
			sb.WriteString("\n")
		}
	}
	if total > 0 {
		fmt.Fprintf(&sb, "\n⏱ *Total Prep:* %d mins\n", total)
	}
	sb.WriteString("\n_Use /regen 0-1 to replace a meal._")
	return sb.String()
}

func formatGroceryMarkdown(items []shopping.GroceryItem) string {
	if len(items) == 0 {
		return "🛒 Your grocery list is empty."
	}

	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	for _, group := range shopping.GroupByAisle(items) {
		fmt.Fprintf(&sb, "\n*%s*\n", group.Aisle)
		for _, it := range group.Items {
			box := "⬜"
			if it.Checked {
				box = "✅"
			}
			fmt.Fprintf(&sb, "%s %s", box, escapeMarkdown(it.Item))
			if it.Quantity > 1 {
				fmt.Fprintf(&sb, " ×%d", it.Quantity)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatMetricsMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s in %d files\n", health.DataDiskSize, health.DataFiles)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// splitMessage cuts text into chunks Telegram accepts, breaking on line ends.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if cur.Len()+len(line) > maxMessageLen && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		for len(line) > maxMessageLen {
			chunks = append(chunks, line[:maxMessageLen])
			line = line[maxMessageLen:]
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
