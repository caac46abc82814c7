package planner

import (
	"context"
	"fmt"
	"sync"

	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/preferences"
	"dont-get-fat/internal/shared"
)

type MockTextGenerator struct {
	mu       sync.Mutex
	Response string
	Usage    shared.TokenUsage
	Err      error
	Prompts  []llm.Prompt
}

func (m *MockTextGenerator) GenerateContent(_ context.Context, prompt llm.Prompt) (llm.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{Content: m.Response, Usage: m.Usage}, nil
}

// MockMealRegenerator returns canned meals and can run a hook before answering.
type MockMealRegenerator struct {
	Meals    []mealplan.Meal
	Err      error
	Meta     shared.AgentMeta
	Requests []RegenerateRequest
	Before   func()
}

func (m *MockMealRegenerator) RegenerateMeals(_ context.Context, req RegenerateRequest) ([]mealplan.Meal, shared.AgentMeta, error) {
	m.Requests = append(m.Requests, req)
	if m.Before != nil {
		m.Before()
	}
	return m.Meals, m.Meta, m.Err
}

func testPreferences() preferences.Preferences {
	return preferences.Preferences{Diet: "Vegetarian", Servings: 2, Dislikes: "olives"}
}

// twoByThreePlan has two days of breakfast, lunch and dinner.
func twoByThreePlan() *mealplan.MealPlan {
	plan := &mealplan.MealPlan{}
	types := []mealplan.MealType{mealplan.Breakfast, mealplan.Lunch, mealplan.Dinner}
	for d := 0; d < 2; d++ {
		day := mealplan.DayPlan{Day: d + 1}
		for m, t := range types {
			day.Meals = append(day.Meals, mealplan.Meal{
				Type:          t,
				Name:          fmt.Sprintf("Meal %d-%d", d, m),
				Ingredients:   []string{"Egg", fmt.Sprintf("ingredient %d-%d", d, m)},
				EstimatedTime: 10 * (m + 1),
			})
		}
		plan.Days = append(plan.Days, day)
	}
	return plan
}
