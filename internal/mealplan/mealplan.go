package mealplan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MealType is the slot a meal fills within a day.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// ParseMealType normalizes s and reports whether it names a known meal type.
func ParseMealType(s string) (MealType, bool) {
	t := MealType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case Breakfast, Lunch, Dinner, Snack:
		return t, true
	}
	return "", false
}

// Meal is a single generated meal. Meals are replaced wholesale, never edited field by field.
type Meal struct {
	Type          MealType `json:"type"`
	Name          string   `json:"name"`
	Ingredients   []string `json:"ingredients"`
	EstimatedTime int      `json:"estimated_time"`
	ImageURL      string   `json:"imageUrl,omitempty"`
}

// DayPlan holds the meals of one calendar day, in generation order.
type DayPlan struct {
	Day   int    `json:"day"`
	Meals []Meal `json:"meals"`
}

// MealPlan is the root object owned by the plan store.
type MealPlan struct {
	Days []DayPlan `json:"days"`
}

// Clone returns a deep copy of the plan. A nil plan clones to nil.
func (p *MealPlan) Clone() *MealPlan {
	if p == nil {
		return nil
	}
	out := &MealPlan{Days: make([]DayPlan, len(p.Days))}
	for i, d := range p.Days {
		out.Days[i] = DayPlan{Day: d.Day, Meals: make([]Meal, len(d.Meals))}
		for j, m := range d.Meals {
			out.Days[i].Meals[j] = m.Clone()
		}
	}
	return out
}

// Clone returns a copy of the meal that shares no slices with m.
func (m Meal) Clone() Meal {
	if m.Ingredients != nil {
		m.Ingredients = append([]string(nil), m.Ingredients...)
	}
	return m
}

// MealAt returns the meal addressed by ref, if the plan has that slot.
func (p *MealPlan) MealAt(ref MealRef) (Meal, bool) {
	if p == nil || ref.Day < 0 || ref.Day >= len(p.Days) {
		return Meal{}, false
	}
	meals := p.Days[ref.Day].Meals
	if ref.Meal < 0 || ref.Meal >= len(meals) {
		return Meal{}, false
	}
	return meals[ref.Meal], true
}

// MealCount returns the number of meals across all days.
func (p *MealPlan) MealCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, d := range p.Days {
		n += len(d.Meals)
	}
	return n
}

// Validate checks the shape a generated plan must have before it is committed.
func (p *MealPlan) Validate() error {
	if p == nil {
		return errors.New("meal plan is nil")
	}
	if len(p.Days) == 0 {
		return errors.New("meal plan has no days")
	}
	for i, d := range p.Days {
		for j, m := range d.Meals {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("day %d meal %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// Validate checks that a meal carries a name and a known type.
func (m Meal) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("meal has no name")
	}
	if _, ok := ParseMealType(string(m.Type)); !ok {
		return fmt.Errorf("unknown meal type %q", m.Type)
	}
	return nil
}

// MealRef addresses a meal by its position in a plan: Days[Day].Meals[Meal].
type MealRef struct {
	Day  int
	Meal int
}

// ParseMealRef parses the "day-meal" form, e.g. "0-1". Fields after the second are ignored.
func ParseMealRef(s string) (MealRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) < 2 {
		return MealRef{}, fmt.Errorf("invalid meal reference %q: expected day-meal", s)
	}
	dayStr, mealStr := parts[0], parts[1]
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return MealRef{}, fmt.Errorf("invalid day index in %q: %w", s, err)
	}
	meal, err := strconv.Atoi(mealStr)
	if err != nil {
		return MealRef{}, fmt.Errorf("invalid meal index in %q: %w", s, err)
	}
	if day < 0 || meal < 0 {
		return MealRef{}, fmt.Errorf("invalid meal reference %q: indexes must not be negative", s)
	}
	return MealRef{Day: day, Meal: meal}, nil
}

// ParseMealRefs parses every key, failing on the first malformed one.
func ParseMealRefs(keys []string) ([]MealRef, error) {
	refs := make([]MealRef, 0, len(keys))
	for _, k := range keys {
		ref, err := ParseMealRef(k)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (r MealRef) String() string {
	return fmt.Sprintf("%d-%d", r.Day, r.Meal)
}
