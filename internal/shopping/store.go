package shopping

import (
	"strings"
	"sync"

	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/storage"
)

// ListStore owns the grocery list and its persisted copy.
type ListStore struct {
	mu      sync.RWMutex
	items   []GroceryItem
	storage storage.Storage
}

// NewListStore creates a store, rehydrating the list from s. A missing or
// unreadable blob starts an empty list.
func NewListStore(s storage.Storage) *ListStore {
	var items []GroceryItem
	storage.LoadJSON(s, storage.GroceryListKey, &items)
	if items == nil {
		items = []GroceryItem{}
	}
	return &ListStore{items: items, storage: s}
}

// List returns a copy of the current list.
func (s *ListStore) List() []GroceryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]GroceryItem(nil), s.items...)
}

// Toggle flips the checked state of the item at index. Out-of-range indexes are ignored.
func (s *ListStore) Toggle(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.items) {
		return
	}
	next := append([]GroceryItem(nil), s.items...)
	next[index].Checked = !next[index].Checked
	s.commit(next)
}

// ClearChecked unchecks every item, keeping order, quantities and aisles.
func (s *ListStore) ClearChecked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]GroceryItem, len(s.items))
	for i, it := range s.items {
		it.Checked = false
		next[i] = it
	}
	s.commit(next)
}

// IndexOf returns the current position of the named item, or -1.
// Matching ignores case and surrounding whitespace.
func (s *ListStore) IndexOf(item string) int {
	want := strings.ToLower(strings.TrimSpace(item))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, it := range s.items {
		if strings.ToLower(it.Item) == want {
			return i
		}
	}
	return -1
}

// PlanChanged replaces the list with the aggregation of plan, or clears it when plan is nil.
func (s *ListStore) PlanChanged(plan *mealplan.MealPlan) {
	items := Aggregate(plan)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(items)
}

func (s *ListStore) commit(items []GroceryItem) {
	s.items = items
	storage.SaveJSON(s.storage, storage.GroceryListKey, items)
}
