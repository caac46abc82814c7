package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dont-get-fat/internal/imagegen"
	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/preferences"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "tok")
}

func prefs() preferences.Preferences {
	return preferences.Preferences{Diet: "Vegan", Servings: 1}
}

func TestGenerateMealPlan(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/generate-plan", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var p preferences.Preferences
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "Vegan", p.Diet)
		w.Write([]byte(`{"days":[{"day":1,"meals":[{"type":"lunch","name":"Soup","ingredients":["water"],"estimated_time":5}]}]}`))
	})

	plan, meta, err := c.GenerateMealPlan(context.Background(), prefs())
	require.NoError(t, err)
	assert.Equal(t, "Soup", plan.Days[0].Meals[0].Name)
	assert.Equal(t, "Generator", meta.AgentName)
}

func TestErrorClassesStayDistinguishable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Invalid OpenAI API key or access denied."}`, llm.ErrUnauthorized},
		{"malformed", http.StatusBadGateway, `{"message":"invalid response received"}`, planner.ErrMalformedResponse},
		{"count", http.StatusBadGateway, `{"message":"incorrect number of meals: expected 3, got 2"}`, planner.ErrMealCountMismatch},
		{"not configured", http.StatusServiceUnavailable, `{"message":"llm provider is not configured"}`, llm.ErrNotConfigured},
		{"images not configured", http.StatusServiceUnavailable, `{"message":"Image generation is not configured."}`, imagegen.ErrNotConfigured},
		{"server", http.StatusInternalServerError, `oops`, llm.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, _, err := c.GenerateMealPlan(context.Background(), prefs())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNonJSONSuccessIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway</html>`))
	})
	_, _, err := c.GenerateMealPlan(context.Background(), prefs())
	assert.ErrorIs(t, err, planner.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "<html>gateway</html>")
}

func TestRegenerateMeals_CountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"type":"lunch","name":"Soup"}]`))
	})
	_, _, err := c.RegenerateMeals(context.Background(), planner.RegenerateRequest{
		Preferences:           prefs(),
		MealTypesToRegenerate: []mealplan.MealType{mealplan.Lunch, mealplan.Dinner},
	})
	assert.ErrorIs(t, err, planner.ErrMealCountMismatch)
}

func TestProfile_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no profile"}`))
	})
	p, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}
