package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dont-get-fat/internal/imagegen"
	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/preferences"
	"dont-get-fat/internal/profile"
	"dont-get-fat/internal/shared"
)

// Client talks to a remote meal planner API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client for baseURL. token, when set, is sent as a bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type apiError struct {
	Message string `json:"message"`
}

// GenerateMealPlan implements planner.PlanGenerator against the remote API.
func (c *Client) GenerateMealPlan(ctx context.Context, prefs preferences.Preferences) (*mealplan.MealPlan, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Generator"}

	var plan mealplan.MealPlan
	if err := c.do(ctx, http.MethodPost, "/openai/generate-plan", prefs, &plan); err != nil {
		return nil, meta, err
	}
	meta.Latency = time.Since(start)
	if err := plan.Validate(); err != nil {
		return nil, meta, &planner.MalformedResponseError{Err: err}
	}
	return &plan, meta, nil
}

// RegenerateMeals implements planner.MealRegenerator against the remote API.
func (c *Client) RegenerateMeals(ctx context.Context, req planner.RegenerateRequest) ([]mealplan.Meal, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Regenerator"}

	var meals []mealplan.Meal
	if err := c.do(ctx, http.MethodPost, "/openai/regenerate-meals", req, &meals); err != nil {
		return nil, meta, err
	}
	meta.Latency = time.Since(start)
	if len(meals) != len(req.MealTypesToRegenerate) {
		return nil, meta, fmt.Errorf("%w: expected %d, got %d", planner.ErrMealCountMismatch, len(req.MealTypesToRegenerate), len(meals))
	}
	return meals, meta, nil
}

// GenerateMealImage asks the API for a picture of one meal.
func (c *Client) GenerateMealImage(ctx context.Context, mealName string) (string, error) {
	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/openai/generate-image", map[string]string{"mealName": mealName}, &out); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}

// GenerateAll asks the API for pictures of several meals. Failed meals map to nil.
func (c *Client) GenerateAll(ctx context.Context, mealNames []string) (map[string]*string, error) {
	type meal struct {
		Name string `json:"name"`
	}
	body := struct {
		Meals []meal `json:"meals"`
	}{}
	for _, n := range mealNames {
		body.Meals = append(body.Meals, meal{Name: n})
	}
	out := map[string]*string{}
	if err := c.do(ctx, http.MethodPost, "/openai/generate-all-images", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Profile fetches the caller's profile, or nil when onboarding is not done.
func (c *Client) Profile(ctx context.Context) (*profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodGet, "/profile", nil, &p)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &planner.MalformedResponseError{Raw: string(raw), Err: err}
	}
	return nil
}

// statusError maps API statuses back onto the errors the server derived them from.
func statusError(status int, raw []byte) error {
	var e apiError
	msg := string(raw)
	if json.Unmarshal(raw, &e) == nil && e.Message != "" {
		msg = e.Message
	}

	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", preferences.ErrInvalidPreferences, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", llm.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusServiceUnavailable:
		if msg == imagegen.ErrNotConfigured.Error() {
			return imagegen.ErrNotConfigured
		}
		return fmt.Errorf("%w: %s", llm.ErrNotConfigured, msg)
	case http.StatusBadGateway:
		if strings.Contains(msg, planner.ErrMealCountMismatch.Error()) {
			return fmt.Errorf("%w: %s", planner.ErrMealCountMismatch, msg)
		}
		return &planner.MalformedResponseError{Raw: msg, Err: errors.New("upstream returned unusable content")}
	}
	return fmt.Errorf("%w: status=%d message=%s", llm.ErrUpstream, status, msg)
}
