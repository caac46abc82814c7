package planner

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dont-get-fat/internal/config"
	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/preferences"
	"dont-get-fat/internal/shared"
)

const validPlanJSON = `{"days":[{"day":1,"meals":[
	{"type":"Breakfast","name":"Oatmeal","ingredients":["oats","milk"],"estimated_time":10},
	{"type":"dinner","name":"Lentil Soup","ingredients":["lentils","carrot"],"estimated_time":40}]}]}`

func TestGenerateMealPlan_ParsesAndNormalizes(t *testing.T) {
	gen := &MockTextGenerator{
		Response: "Here you go:\n```json\n" + validPlanJSON + "\n```",
		Usage:    shared.TokenUsage{PromptTokens: 120, CompletionTokens: 80, TotalTokens: 200, Model: "test"},
	}
	calories := 1800.0
	prefs := testPreferences()
	prefs.Calories = &calories

	plan, meta, err := NewPlanner(gen).GenerateMealPlan(context.Background(), prefs)
	require.NoError(t, err)

	require.Len(t, plan.Days, 1)
	assert.Equal(t, mealplan.Breakfast, plan.Days[0].Meals[0].Type)
	assert.Equal(t, "Lentil Soup", plan.Days[0].Meals[1].Name)
	assert.Equal(t, "Generator", meta.AgentName)
	assert.Equal(t, 120, meta.Usage.PromptTokens)

	require.Len(t, gen.Prompts, 1)
	p := gen.Prompts[0]
	assert.True(t, p.JSON)
	assert.Equal(t, 0.7, p.Temperature)
	assert.Equal(t, 2048, p.MaxTokens)
	assert.Contains(t, p.System, `"estimated_time": number`)
	assert.Contains(t, p.User, "Diet: Vegetarian")
	assert.Contains(t, p.User, "Household Size: 2")
	assert.Contains(t, p.User, "Calories per day (approximate total): 1800")
	assert.Contains(t, p.User, "Disliked Ingredients: olives")
	assert.Contains(t, p.User, "Additional Preferences: none")
}

func TestGenerateMealPlan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		gen     *MockTextGenerator
		prefs   preferences.Preferences
		wantErr error
	}{
		{"invalid preferences", &MockTextGenerator{}, preferences.Preferences{}, preferences.ErrInvalidPreferences},
		{"not json", &MockTextGenerator{Response: "I cannot help with that"}, testPreferences(), ErrMalformedResponse},
		{"no days", &MockTextGenerator{Response: `{"days":[]}`}, testPreferences(), ErrMalformedResponse},
		{"unknown meal type", &MockTextGenerator{Response: `{"days":[{"day":1,"meals":[{"type":"brunch","name":"x"}]}]}`}, testPreferences(), ErrMalformedResponse},
		{"unauthorized", &MockTextGenerator{Err: llm.ErrUnauthorized}, testPreferences(), llm.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, _, err := NewPlanner(tt.gen).GenerateMealPlan(context.Background(), tt.prefs)
			assert.Nil(t, plan)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateMealPlan_MalformedKeepsRawContent(t *testing.T) {
	gen := &MockTextGenerator{Response: "definitely not a plan"}
	_, _, err := NewPlanner(gen).GenerateMealPlan(context.Background(), testPreferences())

	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "definitely not a plan", malformed.Raw)
	assert.Contains(t, err.Error(), "Response: definitely not a plan")
}

func TestRegenerateMeals(t *testing.T) {
	gen := &MockTextGenerator{Response: `{"meals":[
		{"type":"lunch","name":"Falafel Wrap","ingredients":["falafel"],"estimated_time":15},
		{"type":"DINNER","name":"Veggie Curry","ingredients":["chickpeas"],"estimated_time":35}]}`}

	meals, meta, err := NewPlanner(gen).RegenerateMeals(context.Background(), RegenerateRequest{
		Preferences:           testPreferences(),
		MealTypesToRegenerate: []mealplan.MealType{mealplan.Lunch, mealplan.Dinner},
		PreviousMealNames:     []string{"Caesar Salad", "Pasta"},
	})
	require.NoError(t, err)

	require.Len(t, meals, 2)
	assert.Equal(t, mealplan.Dinner, meals[1].Type)
	assert.Equal(t, "Regenerator", meta.AgentName)

	p := gen.Prompts[0]
	assert.Equal(t, 0.8, p.Temperature)
	assert.Equal(t, 1024, p.MaxTokens)
	assert.Contains(t, p.User, "Create 2 replacement meals")
	assert.Contains(t, p.User, "with these types: lunch, dinner.")
	assert.Contains(t, p.User, "previous ones: Caesar Salad, Pasta.")
}

func TestRegenerateMeals_Errors(t *testing.T) {
	req := RegenerateRequest{
		Preferences:           testPreferences(),
		MealTypesToRegenerate: []mealplan.MealType{mealplan.Breakfast, mealplan.Lunch, mealplan.Dinner},
	}

	t.Run("count mismatch", func(t *testing.T) {
		gen := &MockTextGenerator{Response: `{"meals":[{"type":"breakfast","name":"a"},{"type":"lunch","name":"b"}]}`}
		_, _, err := NewPlanner(gen).RegenerateMeals(context.Background(), req)
		assert.ErrorIs(t, err, ErrMealCountMismatch)
		assert.Contains(t, err.Error(), "expected 3, got 2")
	})

	t.Run("missing meals array", func(t *testing.T) {
		gen := &MockTextGenerator{Response: `{"days":[]}`}
		_, _, err := NewPlanner(gen).RegenerateMeals(context.Background(), req)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("no meal types", func(t *testing.T) {
		_, _, err := NewPlanner(&MockTextGenerator{}).RegenerateMeals(context.Background(), RegenerateRequest{Preferences: testPreferences()})
		assert.ErrorIs(t, err, preferences.ErrInvalidPreferences)
	})
}

// TestGenerateMealPlan_Live runs against the configured provider.
func TestGenerateMealPlan_Live(t *testing.T) {
	if os.Getenv("RUN_LIVE_EVALS") == "" {
		t.Skip("set RUN_LIVE_EVALS=1 to call the configured LLM provider")
	}
	cfg, err := config.NewFromEnv()
	require.NoError(t, err)
	gen, err := llm.NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)

	plan, meta, err := NewPlanner(gen).GenerateMealPlan(context.Background(), testPreferences())
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Days)
	t.Logf("generated %d meals, usage %+v", plan.MealCount(), meta.Usage)
}
