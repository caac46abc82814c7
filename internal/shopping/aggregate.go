package shopping

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"dont-get-fat/internal/mealplan"
)

// GroceryItem is one line of the grocery list. Quantity counts how many times the
// ingredient appears across the plan; Unit is reserved and always empty.
type GroceryItem struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
	Checked  bool   `json:"checked"`
	Aisle    string `json:"aisle"`
}

// Aggregate derives the grocery list of a plan: ingredients are trimmed and
// lower-cased, counted, capitalized for display and sorted by item.
func Aggregate(plan *mealplan.MealPlan) []GroceryItem {
	if plan == nil {
		return []GroceryItem{}
	}

	counts := make(map[string]int)
	for _, day := range plan.Days {
		for _, meal := range day.Meals {
			for _, ingredient := range meal.Ingredients {
				normalized := strings.ToLower(strings.TrimSpace(ingredient))
				if normalized == "" {
					continue
				}
				counts[normalized]++
			}
		}
	}

	// Distinct keys can capitalize to the same display name; ties fall back to the key.
	type keyed struct {
		key  string
		item GroceryItem
	}
	rows := make([]keyed, 0, len(counts))
	for normalized, qty := range counts {
		rows = append(rows, keyed{key: normalized, item: GroceryItem{
			Item:     capitalize(normalized),
			Quantity: qty,
			Aisle:    Classify(normalized),
		}})
	}
	slices.SortFunc(rows, func(a, b keyed) int {
		if c := strings.Compare(a.item.Item, b.item.Item); c != 0 {
			return c
		}
		return strings.Compare(a.key, b.key)
	})

	items := make([]GroceryItem, len(rows))
	for i, r := range rows {
		items[i] = r.item
	}
	return items
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
