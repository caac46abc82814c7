package preferences

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"dont-get-fat/internal/profile"
	"dont-get-fat/internal/storage"
)

var (
	// ErrNoProfile is returned when preferences are resolved without a profile.
	ErrNoProfile = errors.New("user profile not available")

	// ErrInvalidPreferences wraps every validation failure.
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// NoProfileMessage is shown to users who try to plan before finishing onboarding.
const NoProfileMessage = "User preferences not available. Please ensure you are logged in and have completed onboarding."

// Preferences is the normalized input of plan generation.
type Preferences struct {
	Diet        string   `json:"diet"`
	Servings    int      `json:"servings"`
	Calories    *float64 `json:"calories,omitempty"`
	Dislikes    string   `json:"dislikes"`
	Preferences string   `json:"preferences"`
}

// Validate checks the fields plan generation depends on.
func (p Preferences) Validate() error {
	if strings.TrimSpace(p.Diet) == "" {
		return fmt.Errorf("%w: diet must not be empty", ErrInvalidPreferences)
	}
	if p.Servings < 1 {
		return fmt.Errorf("%w: servings must be at least 1", ErrInvalidPreferences)
	}
	if p.Calories != nil && *p.Calories < 1 {
		return fmt.Errorf("%w: calories must be at least 1", ErrInvalidPreferences)
	}
	return nil
}

// ServingsFor maps a household-size bucket label to a serving count.
// Later rules override earlier ones; unmatched labels serve one.
func ServingsFor(householdSize string) int {
	servings := 1
	if strings.Contains(householdSize, "(1)") {
		servings = 1
	}
	if strings.Contains(householdSize, "(2)") {
		servings = 2
	}
	if strings.Contains(householdSize, "(3+)") {
		servings = 3
	}
	return servings
}

// Resolve derives generation preferences from a profile.
func Resolve(p *profile.Profile) (Preferences, error) {
	if p == nil {
		return Preferences{}, ErrNoProfile
	}

	servings := ServingsFor(p.HouseholdSize)
	dislikes := joinNonEmpty(append(append([]string{}, p.Allergies...), p.SpecificAllergies, p.Dislikes), ", ")

	goals := or(strings.Join(p.Goals, ", "), "Not specified")
	if p.OtherGoals != "" {
		goals += "; Other: " + p.OtherGoals
	}
	batch := "No"
	if p.BatchCooking {
		batch = "Yes"
	}

	lines := []string{
		"Goals: " + goals,
		"Dietary Choice: " + or(p.DietaryChoice, "Not specified"),
		"Dislikes/Allergies: " + or(dislikes, "None"),
		"Cooking Time Preference: " + or(p.CookingTime, "Not specified"),
		"Likes Batch Cooking: " + batch,
		fmt.Sprintf("Household Size/Servings: %s (%d servings planned)", or(p.HouseholdSize, "Not specified"), servings),
		"Meals Per Day: " + or(p.MealsPerDay, "Not specified"),
		"Cooking Days Per Week: " + or(p.CookingDaysPerWeek, "Not specified"),
		"Favorite Cuisines: " + or(strings.Join(p.FavoriteCuisines, ", "), "None"),
		"Favorite Meals Examples: " + or(p.FavoriteMeals, "None specified"),
	}

	return Preferences{
		Diet:        or(p.DietaryChoice, "None"),
		Servings:    servings,
		Dislikes:    dislikes,
		Preferences: strings.Join(lines, "\n"),
	}, nil
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func (p Preferences) clone() Preferences {
	if p.Calories != nil {
		c := *p.Calories
		p.Calories = &c
	}
	return p
}

// Store owns the last resolved preferences and their persisted copy.
type Store struct {
	mu      sync.RWMutex
	current *Preferences
	storage storage.Storage
}

// NewStore rehydrates preferences from s.
func NewStore(s storage.Storage) *Store {
	var p *Preferences
	storage.LoadJSON(s, storage.PreferencesKey, &p)
	return &Store{current: p, storage: s}
}

// Get returns a copy of the current preferences, or nil.
func (s *Store) Get() *Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := s.current.clone()
	return &cp
}

// Set replaces the preferences and persists them.
func (s *Store) Set(p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = p.clone()
	s.current = &p
	storage.SaveJSON(s.storage, storage.PreferencesKey, p)
}
