package profile

import "time"

// Profile is the durable onboarding record of a user.
type Profile struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username,omitempty"`
	FullName           string    `json:"full_name,omitempty"`
	Goals              []string  `json:"goals"`
	OtherGoals         string    `json:"other_goals,omitempty"`
	Allergies          []string  `json:"allergies"`
	SpecificAllergies  string    `json:"specific_allergies,omitempty"`
	DietaryChoice      string    `json:"dietary_choice,omitempty"`
	Dislikes           string    `json:"dislikes,omitempty"`
	CookingTime        string    `json:"cooking_time,omitempty"`
	BatchCooking       bool      `json:"batch_cooking"`
	HouseholdSize      string    `json:"household_size,omitempty"`
	MealsPerDay        string    `json:"meals_per_day,omitempty"`
	CookingDaysPerWeek string    `json:"cooking_days_per_week,omitempty"`
	FavoriteCuisines   []string  `json:"favorite_cuisines"`
	FavoriteMeals      string    `json:"favorite_meals,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}
