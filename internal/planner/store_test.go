package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/shopping"
	"dont-get-fat/internal/storage"
)

func TestStore_SetPlanCascadesToGroceryList(t *testing.T) {
	mem := storage.NewMemoryStore()
	store := NewStore(mem)
	list := shopping.NewListStore(mem)
	store.Subscribe(list)

	plan := twoByThreePlan()
	store.SetPlan(plan)

	assert.Equal(t, shopping.Aggregate(plan), list.List())

	list.Toggle(0)
	store.SetPlan(plan)
	assert.Equal(t, shopping.Aggregate(plan), list.List(), "replacing the plan drops checked state")

	store.SetPlan(nil)
	assert.Nil(t, store.Plan())
	assert.Empty(t, list.List())
}

func TestStore_PersistsAndRehydrates(t *testing.T) {
	mem := storage.NewMemoryStore()
	store := NewStore(mem)
	plan := twoByThreePlan()
	store.SetPlan(plan)

	reloaded := NewStore(mem)
	assert.Equal(t, plan, reloaded.Plan())

	store.SetPlan(nil)
	_, err := mem.Load(storage.MealPlanKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, NewStore(mem).Plan())
}

func TestStore_CorruptBlobStartsEmpty(t *testing.T) {
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Save(storage.MealPlanKey, []byte("{not json")))

	assert.Nil(t, NewStore(mem).Plan())
}

func TestStore_PlanIsACopy(t *testing.T) {
	store := NewStore(storage.NewMemoryStore())
	plan := twoByThreePlan()
	store.SetPlan(plan)

	plan.Days[0].Meals[0].Name = "changed by caller"
	got := store.Plan()
	got.Days[0].Meals[1].Name = "changed by reader"

	again := store.Plan()
	assert.Equal(t, "Meal 0-0", again.Days[0].Meals[0].Name)
	assert.Equal(t, "Meal 0-1", again.Days[0].Meals[1].Name)
}

func TestStore_Unsubscribe(t *testing.T) {
	store := NewStore(storage.NewMemoryStore())
	calls := 0
	unsubscribe := store.Subscribe(PlanListenerFunc(func(*mealplan.MealPlan) { calls++ }))

	store.SetPlan(twoByThreePlan())
	unsubscribe()
	store.SetPlan(nil)

	assert.Equal(t, 1, calls)
}

func TestStore_UpdateHoldsOffConcurrentReplacements(t *testing.T) {
	store := NewStore(storage.NewMemoryStore())
	store.SetPlan(twoByThreePlan())

	replacement := &mealplan.MealPlan{Days: []mealplan.DayPlan{{Day: 1, Meals: []mealplan.Meal{{Type: mealplan.Lunch, Name: "Fresh Plan"}}}}}
	replaced := make(chan struct{})

	err := store.Update(func(current *mealplan.MealPlan) (*mealplan.MealPlan, error) {
		go func() {
			store.SetPlan(replacement)
			close(replaced)
		}()
		select {
		case <-replaced:
			t.Error("SetPlan committed in the middle of Update")
		case <-time.After(50 * time.Millisecond):
		}
		current.Days[0].Meals[0].Name = "Spliced"
		return current, nil
	})
	require.NoError(t, err)

	<-replaced
	assert.Equal(t, replacement, store.Plan(), "the later replacement wins over the earlier update")
}

func TestStore_UpdateErrorLeavesPlan(t *testing.T) {
	mem := storage.NewMemoryStore()
	store := NewStore(mem)
	plan := twoByThreePlan()
	store.SetPlan(plan)

	notified := 0
	store.Subscribe(PlanListenerFunc(func(*mealplan.MealPlan) { notified++ }))

	boom := errors.New("boom")
	err := store.Update(func(current *mealplan.MealPlan) (*mealplan.MealPlan, error) {
		current.Days[0].Meals[0].Name = "Changed"
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, plan, store.Plan())
	assert.Zero(t, notified)

	require.NoError(t, store.Update(func(current *mealplan.MealPlan) (*mealplan.MealPlan, error) {
		current.Days[0].Meals[0].Name = "Changed"
		return current, nil
	}))
	assert.Equal(t, "Changed", store.Plan().Days[0].Meals[0].Name)
	assert.Equal(t, 1, notified)
	assert.Equal(t, "Changed", NewStore(mem).Plan().Days[0].Meals[0].Name)
}
