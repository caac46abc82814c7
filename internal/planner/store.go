package planner

import (
	"sync"

	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/storage"
)

// PlanListener is notified after every plan replacement. A nil plan means the plan was cleared.
type PlanListener interface {
	PlanChanged(plan *mealplan.MealPlan)
}

// PlanListenerFunc adapts a function to PlanListener.
type PlanListenerFunc func(plan *mealplan.MealPlan)

func (f PlanListenerFunc) PlanChanged(plan *mealplan.MealPlan) { f(plan) }

// Store owns the current meal plan and its persisted copy. The only way to change
// the plan is to replace it as a whole.
type Store struct {
	mu        sync.RWMutex
	plan      *mealplan.MealPlan
	storage   storage.Storage
	listeners map[int]PlanListener
	nextID    int
}

// NewStore creates a Store, rehydrating the plan from s once. A missing or unreadable
// blob means there is no plan. Listeners are not notified of the rehydrated plan.
func NewStore(s storage.Storage) *Store {
	var plan *mealplan.MealPlan
	storage.LoadJSON(s, storage.MealPlanKey, &plan)
	return &Store{
		plan:      plan,
		storage:   s,
		listeners: make(map[int]PlanListener),
	}
}

// Plan returns a copy of the current plan, or nil.
func (s *Store) Plan() *mealplan.MealPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan.Clone()
}

// SetPlan replaces the plan (nil clears it), persists it and synchronously notifies
// every listener before returning. Listeners must not call back into the Store.
func (s *Store) SetPlan(plan *mealplan.MealPlan) {
	plan = plan.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(plan)
}

// Update reads, modifies and replaces the plan under one lock, so no other
// replacement can land in between. fn receives a copy of the current plan (nil when
// there is none). When fn returns an error the plan is left as it was.
func (s *Store) Update(fn func(current *mealplan.MealPlan) (*mealplan.MealPlan, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.plan.Clone())
	if err != nil {
		return err
	}
	s.commit(next.Clone())
	return nil
}

func (s *Store) commit(plan *mealplan.MealPlan) {
	s.plan = plan
	if plan == nil {
		storage.Remove(s.storage, storage.MealPlanKey)
	} else {
		storage.SaveJSON(s.storage, storage.MealPlanKey, plan)
	}

	for _, l := range s.listeners {
		l.PlanChanged(plan.Clone())
	}
}

// Subscribe registers l for plan replacements and returns its unsubscribe function.
func (s *Store) Subscribe(l PlanListener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
