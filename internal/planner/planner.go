package planner

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/mealplan"
	"dont-get-fat/internal/preferences"
	"dont-get-fat/internal/shared"
)

//go:embed generator_prompt.md
var generatorPrompt string

//go:embed regenerator_prompt.md
var regeneratorPrompt string

const (
	generatorAgent   = "Generator"
	regeneratorAgent = "Regenerator"
)

var promptFuncs = template.FuncMap{
	"join": func(items any, sep string) string {
		switch v := items.(type) {
		case []string:
			return strings.Join(v, sep)
		case []mealplan.MealType:
			parts := make([]string, len(v))
			for i, t := range v {
				parts[i] = string(t)
			}
			return strings.Join(parts, sep)
		}
		return fmt.Sprint(items)
	},
}

var (
	generatorTemplates   = template.Must(template.New("generator").Funcs(promptFuncs).Parse(generatorPrompt))
	regeneratorTemplates = template.Must(template.New("regenerator").Funcs(promptFuncs).Parse(regeneratorPrompt))
)

// PlanGenerator produces a full meal plan from preferences.
type PlanGenerator interface {
	GenerateMealPlan(ctx context.Context, prefs preferences.Preferences) (*mealplan.MealPlan, shared.AgentMeta, error)
}

// MealRegenerator produces replacement meals, one per requested type, in request order.
type MealRegenerator interface {
	RegenerateMeals(ctx context.Context, req RegenerateRequest) ([]mealplan.Meal, shared.AgentMeta, error)
}

// RegenerateRequest asks for one new meal per entry of MealTypesToRegenerate.
// PreviousMealNames are the meals being replaced, passed as meals to avoid.
type RegenerateRequest struct {
	Preferences           preferences.Preferences `json:"preferences"`
	MealTypesToRegenerate []mealplan.MealType     `json:"mealTypesToRegenerate"`
	PreviousMealNames     []string                `json:"previousMealNames"`
}

// Validate checks the request before it is sent to a model.
func (r RegenerateRequest) Validate() error {
	if err := r.Preferences.Validate(); err != nil {
		return err
	}
	if len(r.MealTypesToRegenerate) == 0 {
		return fmt.Errorf("%w: mealTypesToRegenerate must not be empty", preferences.ErrInvalidPreferences)
	}
	for _, t := range r.MealTypesToRegenerate {
		if _, ok := mealplan.ParseMealType(string(t)); !ok {
			return fmt.Errorf("%w: unknown meal type %q", preferences.ErrInvalidPreferences, t)
		}
	}
	return nil
}

// Planner generates plans and replacement meals with a language model.
type Planner struct {
	textGen llm.TextGenerator
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator) *Planner {
	return &Planner{textGen: textGen}
}

type promptData struct {
	Diet          string
	Servings      int
	Calories      string
	Dislikes      string
	Preferences   string
	Types         []mealplan.MealType
	PreviousNames []string
}

func newPromptData(p preferences.Preferences) promptData {
	d := promptData{
		Diet:        p.Diet,
		Servings:    p.Servings,
		Calories:    "not specified",
		Dislikes:    p.Dislikes,
		Preferences: p.Preferences,
	}
	if p.Calories != nil {
		d.Calories = strconv.FormatFloat(*p.Calories, 'f', -1, 64)
	}
	if strings.TrimSpace(d.Dislikes) == "" {
		d.Dislikes = "none"
	}
	if strings.TrimSpace(d.Preferences) == "" {
		d.Preferences = "none"
	}
	return d
}

// GenerateMealPlan asks the model for a complete plan.
func (p *Planner) GenerateMealPlan(ctx context.Context, prefs preferences.Preferences) (*mealplan.MealPlan, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: generatorAgent}
	if err := prefs.Validate(); err != nil {
		return nil, meta, err
	}

	start := time.Now()
	prompt, err := buildPrompt(generatorTemplates, newPromptData(prefs))
	if err != nil {
		return nil, meta, err
	}
	prompt.Temperature = 0.7
	prompt.MaxTokens = 2048

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to generate meal plan: %w", err)
	}
	meta = shared.NewAgentMeta(generatorAgent, resp.Usage, start)

	plan, err := llm.ExtractJSON[mealplan.MealPlan](resp.Content)
	if err != nil {
		return nil, meta, &MalformedResponseError{Raw: resp.Content, Err: err}
	}
	normalizeMeals(plan.Days)
	if err := plan.Validate(); err != nil {
		return nil, meta, &MalformedResponseError{Raw: resp.Content, Err: err}
	}
	return &plan, meta, nil
}

// RegenerateMeals asks the model for one replacement per requested type.
func (p *Planner) RegenerateMeals(ctx context.Context, req RegenerateRequest) ([]mealplan.Meal, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: regeneratorAgent}
	if err := req.Validate(); err != nil {
		return nil, meta, err
	}

	start := time.Now()
	data := newPromptData(req.Preferences)
	data.Types = req.MealTypesToRegenerate
	data.PreviousNames = req.PreviousMealNames
	prompt, err := buildPrompt(regeneratorTemplates, data)
	if err != nil {
		return nil, meta, err
	}
	prompt.Temperature = 0.8
	prompt.MaxTokens = 1024

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to regenerate meals: %w", err)
	}
	meta = shared.NewAgentMeta(regeneratorAgent, resp.Usage, start)

	envelope, err := llm.ExtractJSON[struct {
		Meals []mealplan.Meal `json:"meals"`
	}](resp.Content)
	if err != nil {
		return nil, meta, &MalformedResponseError{Raw: resp.Content, Err: err}
	}
	if envelope.Meals == nil {
		return nil, meta, &MalformedResponseError{Raw: resp.Content, Err: errors.New(`missing "meals" array`)}
	}
	if len(envelope.Meals) != len(req.MealTypesToRegenerate) {
		return nil, meta, fmt.Errorf("%w: expected %d, got %d", ErrMealCountMismatch, len(req.MealTypesToRegenerate), len(envelope.Meals))
	}

	day := []mealplan.DayPlan{{Meals: envelope.Meals}}
	normalizeMeals(day)
	for i, m := range envelope.Meals {
		if err := m.Validate(); err != nil {
			return nil, meta, &MalformedResponseError{Raw: resp.Content, Err: fmt.Errorf("meal %d: %w", i, err)}
		}
	}
	return envelope.Meals, meta, nil
}

// normalizeMeals lower-cases meal types in place so "Dinner" is accepted as dinner.
func normalizeMeals(days []mealplan.DayPlan) {
	for i := range days {
		for j := range days[i].Meals {
			m := &days[i].Meals[j]
			if t, ok := mealplan.ParseMealType(string(m.Type)); ok {
				m.Type = t
			}
		}
	}
}

func buildPrompt(tmpl *template.Template, data promptData) (llm.Prompt, error) {
	var system, user bytes.Buffer
	if err := tmpl.ExecuteTemplate(&system, "system", data); err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := tmpl.ExecuteTemplate(&user, "user", data); err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render user prompt: %w", err)
	}
	return llm.Prompt{
		System: strings.TrimSpace(system.String()),
		User:   strings.TrimSpace(user.String()),
		JSON:   true,
	}, nil
}
