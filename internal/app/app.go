package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/preferences"
	"dont-get-fat/internal/profile"
	"dont-get-fat/internal/shared"
	"dont-get-fat/internal/shopping"
	"dont-get-fat/internal/storage"
)

// ErrMissingData is returned when regeneration runs before preferences and a plan exist.
var ErrMissingData = errors.New("Missing necessary data to regenerate meals.")

// ProfileSource looks up the onboarding profile of a user.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
}

// MealClipper extracts a meal of a given type from a recipe page.
type MealClipper interface {
	ClipMeal(ctx context.Context, url string, mealType mealplan.MealType) (mealplan.Meal, error)
}

// PlanHistory records committed plans.
type PlanHistory interface {
	Save(ctx context.Context, userID string, plan *mealplan.MealPlan) (string, error)
}

// Deps are the collaborators of a Session. Clipper, History and Metrics may be nil.
type Deps struct {
	Storage     storage.Storage
	Generator   planner.PlanGenerator
	Regenerator planner.MealRegenerator
	Profiles    ProfileSource
	Clipper     MealClipper
	History     PlanHistory
	Metrics     planner.MetaRecorder
}

// Session is the meal planning state of one user: preferences, the current plan and
// the grocery list derived from it.
type Session struct {
	userID string
	deps   Deps

	preferences *preferences.Store
	plans       *planner.Store
	groceries   *shopping.ListStore
	regenerator *planner.Regenerator
	unsubscribe func()

	loading atomic.Bool
	mu      sync.Mutex
	genErr  error
}

// NewSession rehydrates the stores of userID from deps.Storage and wires the grocery
// list to follow the plan.
func NewSession(userID string, deps Deps) *Session {
	s := &Session{
		userID:      userID,
		deps:        deps,
		preferences: preferences.NewStore(deps.Storage),
		plans:       planner.NewStore(deps.Storage),
		groceries:   shopping.NewListStore(deps.Storage),
	}
	s.unsubscribe = s.plans.Subscribe(s.groceries)
	s.regenerator = planner.NewRegenerator(s.plans, deps.Regenerator)
	if deps.Metrics != nil {
		s.regenerator.WithRecorder(deps.Metrics)
	}
	return s
}

// Close detaches the grocery list from the plan store.
func (s *Session) Close() {
	s.unsubscribe()
}

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// Plan returns the current plan, or nil.
func (s *Session) Plan() *mealplan.MealPlan { return s.plans.Plan() }

// GroceryList returns the current grocery list.
func (s *Session) GroceryList() []shopping.GroceryItem { return s.groceries.List() }

// Preferences returns the last resolved preferences, or nil.
func (s *Session) Preferences() *preferences.Preferences { return s.preferences.Get() }

// Loading reports whether a full plan generation is running.
func (s *Session) Loading() bool { return s.loading.Load() }

// GenerationError returns the error of the last plan generation, or nil.
func (s *Session) GenerationError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genErr
}

// Regenerating reports whether a partial regeneration is running.
func (s *Session) Regenerating() bool { return s.regenerator.InFlight() }

// RegenerateError returns the error of the last partial regeneration, or nil.
func (s *Session) RegenerateError() error { return s.regenerator.Err() }

// GenerateMealPlan resolves preferences from the user's profile, generates a plan and
// commits it. On failure the current plan is left as it was.
func (s *Session) GenerateMealPlan(ctx context.Context) (plan *mealplan.MealPlan, err error) {
	s.loading.Store(true)
	s.setGenErr(nil)
	defer func() {
		if err != nil {
			s.setGenErr(err)
		}
		s.loading.Store(false)
	}()

	p, err := s.deps.Profiles.Get(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("Error loading or generating meal plan: %w", err)
	}
	prefs, err := preferences.Resolve(p)
	if err != nil {
		return nil, err
	}
	s.preferences.Set(prefs)

	start := time.Now()
	plan, meta, err := s.deps.Generator.GenerateMealPlan(ctx, prefs)
	s.record(meta)
	if err != nil {
		return nil, fmt.Errorf("Error loading or generating meal plan: %w", err)
	}
	log.Printf("Generated a %d-day plan for %s in %s", len(plan.Days), s.userID, time.Since(start).Round(time.Millisecond))

	s.plans.SetPlan(plan)
	if s.deps.History != nil {
		if _, err := s.deps.History.Save(ctx, s.userID, plan); err != nil {
			log.Printf("Warning: failed to save meal plan history: %v", err)
		}
	}
	return s.plans.Plan(), nil
}

// RegenerateSelectedMeals replaces the meals at refs, all or nothing.
func (s *Session) RegenerateSelectedMeals(ctx context.Context, refs []mealplan.MealRef) error {
	prefs := s.preferences.Get()
	if prefs == nil || s.plans.Plan() == nil || len(refs) == 0 {
		return s.regenerator.Fail(ErrMissingData)
	}
	return s.regenerator.Regenerate(ctx, *prefs, refs)
}

// SetPlan replaces the plan, as when restoring one from history. nil clears it.
func (s *Session) SetPlan(plan *mealplan.MealPlan) { s.plans.SetPlan(plan) }

// ToggleGroceryItem flips the checked state of the named item, looking up its
// current position first. It reports whether the item exists.
func (s *Session) ToggleGroceryItem(name string) bool {
	i := s.groceries.IndexOf(name)
	if i < 0 {
		return false
	}
	s.groceries.Toggle(i)
	return true
}

// ClearChecked unchecks every grocery item.
func (s *Session) ClearChecked() { s.groceries.ClearChecked() }

// ImportMeal replaces the meal at ref with one clipped from a recipe page. The
// imported meal keeps the slot's meal type.
func (s *Session) ImportMeal(ctx context.Context, ref mealplan.MealRef, url string) (mealplan.Meal, error) {
	if s.deps.Clipper == nil {
		return mealplan.Meal{}, errors.New("recipe import is not available")
	}
	plan := s.plans.Plan()
	if plan == nil {
		return mealplan.Meal{}, planner.ErrNoPlan
	}
	current, ok := plan.MealAt(ref)
	if !ok {
		return mealplan.Meal{}, fmt.Errorf("%w: no meal at %s", planner.ErrNothingToRegenerate, ref)
	}

	meal, err := s.deps.Clipper.ClipMeal(ctx, url, current.Type)
	if err != nil {
		return mealplan.Meal{}, fmt.Errorf("failed to import meal: %w", err)
	}

	err = s.plans.Update(func(plan *mealplan.MealPlan) (*mealplan.MealPlan, error) {
		if got, ok := plan.MealAt(ref); !ok || got.Name != current.Name {
			return nil, planner.ErrStalePlan
		}
		plan.Days[ref.Day].Meals[ref.Meal] = meal
		return plan, nil
	})
	if err != nil {
		return mealplan.Meal{}, err
	}
	return meal, nil
}

func (s *Session) setGenErr(err error) {
	s.mu.Lock()
	s.genErr = err
	s.mu.Unlock()
}

func (s *Session) record(meta shared.AgentMeta) {
	if s.deps.Metrics == nil || meta.Usage.Empty() {
		return
	}
	if err := s.deps.Metrics.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}
