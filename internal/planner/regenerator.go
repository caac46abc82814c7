package planner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/preferences"
	"dont-get-fat/internal/shared"
)

// RegenerationState is the stage a Regenerator is in.
type RegenerationState string

const (
	StateIdle       RegenerationState = "idle"
	StateResolving  RegenerationState = "resolving"
	StateRequesting RegenerationState = "requesting"
	StateSplicing   RegenerationState = "splicing"
)

// MetaRecorder records usage of a generation step.
type MetaRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// ResolvedMeal is a selected slot together with the meal it held when resolved.
type ResolvedMeal struct {
	Ref  mealplan.MealRef
	Type mealplan.MealType
	Name string
}

// Regenerator replaces selected meals of the current plan in one batched request.
// InFlight lets callers gate duplicate triggers; it does not serialize calls.
type Regenerator struct {
	store     *Store
	generator MealRegenerator
	recorder  MetaRecorder

	inFlight atomic.Bool

	mu      sync.Mutex
	state   RegenerationState
	lastErr error
}

// NewRegenerator wires a Regenerator to the plan store it splices into.
func NewRegenerator(store *Store, generator MealRegenerator) *Regenerator {
	return &Regenerator{store: store, generator: generator, state: StateIdle}
}

// WithRecorder records the usage of every regeneration request.
func (r *Regenerator) WithRecorder(rec MetaRecorder) *Regenerator {
	r.recorder = rec
	return r
}

// InFlight reports whether a regeneration is running.
func (r *Regenerator) InFlight() bool {
	return r.inFlight.Load()
}

// State returns the current stage.
func (r *Regenerator) State() RegenerationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the error of the last finished regeneration, or nil.
func (r *Regenerator) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Fail records err as the outcome of a regeneration that was refused before it
// started, and returns it.
func (r *Regenerator) Fail(err error) error {
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
	return err
}

func (r *Regenerator) setState(s RegenerationState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Resolve looks up refs in plan, keeping request order. Refs outside the plan are dropped.
func Resolve(plan *mealplan.MealPlan, refs []mealplan.MealRef) []ResolvedMeal {
	resolved := make([]ResolvedMeal, 0, len(refs))
	seen := make(map[mealplan.MealRef]bool, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		m, ok := plan.MealAt(ref)
		if !ok {
			continue
		}
		seen[ref] = true
		resolved = append(resolved, ResolvedMeal{Ref: ref, Type: m.Type, Name: m.Name})
	}
	return resolved
}

// Regenerate replaces the meals at refs with freshly generated ones. It either commits
// every applicable replacement through the store or leaves the plan untouched.
func (r *Regenerator) Regenerate(ctx context.Context, prefs preferences.Preferences, refs []mealplan.MealRef) (err error) {
	r.inFlight.Store(true)
	defer func() {
		r.mu.Lock()
		r.state = StateIdle
		r.lastErr = err
		r.mu.Unlock()
		r.inFlight.Store(false)
	}()

	r.setState(StateResolving)
	plan := r.store.Plan()
	if plan == nil {
		return ErrNoPlan
	}
	resolved := Resolve(plan, refs)
	if len(resolved) == 0 {
		return ErrNothingToRegenerate
	}
	if len(resolved) < len(refs) {
		log.Printf("Regenerating %d of %d selected meals, the rest are not in the current plan", len(resolved), len(refs))
	}

	r.setState(StateRequesting)
	req := RegenerateRequest{
		Preferences:           prefs,
		MealTypesToRegenerate: make([]mealplan.MealType, len(resolved)),
		PreviousMealNames:     make([]string, len(resolved)),
	}
	for i, rm := range resolved {
		req.MealTypesToRegenerate[i] = rm.Type
		req.PreviousMealNames[i] = rm.Name
	}

	meals, meta, err := r.generator.RegenerateMeals(ctx, req)
	if r.recorder != nil && !meta.Usage.Empty() {
		if recErr := r.recorder.RecordMeta(meta); recErr != nil {
			log.Printf("Warning: failed to record regeneration metrics: %v", recErr)
		}
	}
	if err != nil {
		return err
	}
	if len(meals) != len(resolved) {
		return fmt.Errorf("%w: expected %d, got %d", ErrMealCountMismatch, len(resolved), len(meals))
	}

	r.setState(StateSplicing)
	return r.splice(resolved, meals)
}

// splice applies replacements to the plan as it is now. Slots that no longer hold the
// meal they held when resolved are skipped.
func (r *Regenerator) splice(resolved []ResolvedMeal, meals []mealplan.Meal) error {
	return r.store.Update(func(current *mealplan.MealPlan) (*mealplan.MealPlan, error) {
		if current == nil {
			return nil, ErrStalePlan
		}

		applied := 0
		for i, rm := range resolved {
			m, ok := current.MealAt(rm.Ref)
			if !ok || m.Name != rm.Name || m.Type != rm.Type {
				continue
			}
			current.Days[rm.Ref.Day].Meals[rm.Ref.Meal] = meals[i].Clone()
			applied++
		}
		if applied == 0 {
			return nil, ErrStalePlan
		}
		if applied < len(resolved) {
			log.Printf("Dropped %d stale replacements, the plan changed while regenerating", len(resolved)-applied)
		}
		return current, nil
	})
}
