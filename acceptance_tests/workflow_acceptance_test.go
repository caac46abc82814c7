package acceptance_tests

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"dont-get-fat/internal/app"
	"dont-get-fat/internal/database/databasetest"
	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/metrics"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/profile"
	"dont-get-fat/internal/shared"
	"dont-get-fat/internal/storage"
)

// --- Mock LLM Client ---
type mockLLMClient struct {
	generateContentCalls int
}

func (m *mockLLMClient) GenerateContent(ctx context.Context, prompt llm.Prompt) (llm.ContentResponse, error) {
	m.generateContentCalls++
	usage := shared.TokenUsage{PromptTokens: 120, CompletionTokens: 80, Model: "mock"}

	// Regeneration prompts ask for replacement meals.
	if strings.Contains(prompt.System, "replacement meals") {
		return llm.ContentResponse{Usage: usage, Content: `{"meals": [
			{"type": "Dinner", "name": "Beef Chili", "ingredients": ["ground beef", "kidney beans", "onion"], "estimated_time": 45}
		]}`}, nil
	}

	return llm.ContentResponse{Usage: usage, Content: "```json\n" + `{"days": [
		{"day": 1, "meals": [
			{"type": "breakfast", "name": "Greek Yogurt Bowl", "ingredients": ["greek yogurt", "honey", "walnuts"], "estimated_time": 5},
			{"type": "dinner", "name": "Lemon Chicken", "ingredients": ["chicken breast", "lemon", "rice"], "estimated_time": 35}
		]},
		{"day": 2, "meals": [
			{"type": "breakfast", "name": "Avocado Toast", "ingredients": ["bread", "avocado"], "estimated_time": 10},
			{"type": "dinner", "name": "Veggie Curry", "ingredients": ["chickpeas", "spinach", "Rice"], "estimated_time": 40}
		]}
	]}` + "\n```"}, nil
}

// --- Acceptance Test ---
func TestFullWorkflow(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	// 1. Real database, file state store and cached LLM around the mock
	db := databasetest.New(t)
	profiles := profile.NewRepository(db.SQL)
	history := planner.NewPlanRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	if err := profiles.Upsert(ctx, &profile.Profile{
		ID:            "u1",
		DietaryChoice: "Omnivore",
		HouseholdSize: "Couple (2)",
		MealsPerDay:   "2",
	}); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}

	llmClient := &mockLLMClient{}
	cached, err := llm.NewCachedTextGenerator(llmClient, filepath.Join(tempDir, "cache", "llm.json"))
	if err != nil {
		t.Fatalf("Failed to create cached generator: %v", err)
	}
	mealPlanner := planner.NewPlanner(cached)

	state, err := storage.NewFileStore(filepath.Join(tempDir, "state"))
	if err != nil {
		t.Fatalf("Failed to create FileStore: %v", err)
	}
	deps := app.Deps{
		Storage:     state,
		Generator:   mealPlanner,
		Regenerator: mealPlanner,
		Profiles:    profiles,
		History:     history,
		Metrics:     metricsStore,
	}
	session := app.NewSession("u1", deps)

	// --- 2. Step 1: Generation ---
	t.Log("--- Step 1: Generating Meal Plan ---")
	plan, err := session.GenerateMealPlan(ctx)
	if err != nil {
		t.Fatalf("Meal planning failed: %v", err)
	}
	if llmClient.generateContentCalls != 1 {
		t.Errorf("Expected 1 call to LLM for planning, got %d", llmClient.generateContentCalls)
	}
	if len(plan.Days) != 2 || plan.MealCount() != 4 {
		t.Fatalf("Expected 2 days with 4 meals, got %d days with %d meals", len(plan.Days), plan.MealCount())
	}

	groceries := session.GroceryList()
	var rice bool
	for _, it := range groceries {
		if it.Item == "Rice" {
			rice = true
			if it.Quantity != 2 {
				t.Errorf("Expected rice twice, got %d", it.Quantity)
			}
		}
	}
	if !rice {
		t.Errorf("Expected rice on the grocery list, got %+v", groceries)
	}
	if !session.ToggleGroceryItem("lemon") {
		t.Fatalf("Expected lemon to be toggled")
	}
	session.Close()

	// --- 3. Step 2: Restart ---
	t.Log("--- Step 2: Rehydrating Session ---")
	session = app.NewSession("u1", deps)
	defer session.Close()

	if got := session.Plan(); got == nil || got.MealCount() != 4 {
		t.Fatalf("Expected the plan to survive a restart, got %+v", got)
	}
	if session.Preferences() == nil || session.Preferences().Servings != 2 {
		t.Errorf("Expected preferences to survive a restart, got %+v", session.Preferences())
	}
	var lemonChecked bool
	for _, it := range session.GroceryList() {
		if it.Item == "Lemon" {
			lemonChecked = it.Checked
		}
	}
	if !lemonChecked {
		t.Errorf("Expected checked state to survive a restart")
	}

	// --- 4. Step 3: Partial Regeneration ---
	t.Log("--- Step 3: Regenerating One Meal ---")
	if err := session.RegenerateSelectedMeals(ctx, []mealplan.MealRef{{Day: 1, Meal: 1}}); err != nil {
		t.Fatalf("Regeneration failed: %v", err)
	}
	if llmClient.generateContentCalls != 2 {
		t.Errorf("Expected 2 calls to LLM, got %d", llmClient.generateContentCalls)
	}
	updated := session.Plan()
	if updated.Days[1].Meals[1].Name != "Beef Chili" || updated.Days[1].Meals[1].Type != mealplan.Dinner {
		t.Errorf("Expected Beef Chili for dinner on day 2, got %+v", updated.Days[1].Meals[1])
	}
	if updated.Days[0].Meals[1].Name != "Lemon Chicken" {
		t.Errorf("Expected untouched meals to stay, got %q", updated.Days[0].Meals[1].Name)
	}
	for _, it := range session.GroceryList() {
		if it.Item == "Chickpeas" {
			t.Errorf("Expected the grocery list to follow the new plan")
		}
	}

	// --- 5. Step 4: Cache Hit ---
	t.Log("--- Step 4: Replaying Generation From Cache ---")
	fresh := deps
	fresh.Storage = storage.NewMemoryStore()
	other := app.NewSession("u1", fresh)
	defer other.Close()

	if _, err := other.GenerateMealPlan(ctx); err != nil {
		t.Fatalf("Cached meal planning failed: %v", err)
	}
	if llmClient.generateContentCalls != 2 {
		t.Errorf("Expected the cached response to be replayed, got %d LLM calls", llmClient.generateContentCalls)
	}

	// --- 6. Bookkeeping ---
	entries, err := history.ListRecentByUserID(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Failed to list history: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 plans in history, got %d", len(entries))
	}

	usage, err := metricsStore.GetDailyUsage(1)
	if err != nil {
		t.Fatalf("Failed to read usage: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalExecution != 2 {
		t.Errorf("Expected 2 recorded executions (cache hits are free), got %+v", usage)
	}
}
