package shopping

import (
	"slices"
	"strings"
)

// aisleOrder is the walking order through the store.
var aisleOrder = []string{AisleProduce, AisleMeat, AisleDairy, AislePantry, AisleFrozen, AisleMiscellaneous}

// IndexedItem keeps a grocery item's position in the list so grouped views can still toggle it.
type IndexedItem struct {
	Index int
	GroceryItem
}

// AisleGroup is the items of one aisle.
type AisleGroup struct {
	Aisle string
	Items []IndexedItem
}

// GroupByAisle groups items by aisle in store walking order, items sorted by name
// within each aisle. Unknown aisles follow the known ones alphabetically.
func GroupByAisle(items []GroceryItem) []AisleGroup {
	byAisle := make(map[string][]IndexedItem)
	for i, it := range items {
		aisle := it.Aisle
		if aisle == "" {
			aisle = AisleMiscellaneous
		}
		byAisle[aisle] = append(byAisle[aisle], IndexedItem{Index: i, GroceryItem: it})
	}

	aisles := make([]string, 0, len(byAisle))
	for a := range byAisle {
		aisles = append(aisles, a)
	}
	slices.SortFunc(aisles, func(a, b string) int {
		ia, ib := aisleRank(a), aisleRank(b)
		if ia != ib {
			return ia - ib
		}
		return strings.Compare(a, b)
	})

	groups := make([]AisleGroup, 0, len(aisles))
	for _, a := range aisles {
		groupItems := byAisle[a]
		slices.SortStableFunc(groupItems, func(x, y IndexedItem) int {
			return strings.Compare(x.Item, y.Item)
		})
		groups = append(groups, AisleGroup{Aisle: a, Items: groupItems})
	}
	return groups
}

func aisleRank(aisle string) int {
	if i := slices.Index(aisleOrder, aisle); i >= 0 {
		return i
	}
	return len(aisleOrder)
}
