package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository persists profiles in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new profile Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the profile of userID, or nil when the user has not completed onboarding.
func (r *Repository) Get(ctx context.Context, userID string) (*Profile, error) {
	var (
		p                                  Profile
		goals, allergies, favoriteCuisines string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, full_name, goals, other_goals, allergies, specific_allergies,
		       dietary_choice, dislikes, cooking_time, batch_cooking, household_size,
		       meals_per_day, cooking_days_per_week, favorite_cuisines, favorite_meals, updated_at
		FROM profiles WHERE id = ?`, userID).Scan(
		&p.ID, &p.Username, &p.FullName, &goals, &p.OtherGoals, &allergies, &p.SpecificAllergies,
		&p.DietaryChoice, &p.Dislikes, &p.CookingTime, &p.BatchCooking, &p.HouseholdSize,
		&p.MealsPerDay, &p.CookingDaysPerWeek, &favoriteCuisines, &p.FavoriteMeals, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}

	for _, f := range []struct {
		raw string
		dst *[]string
	}{{goals, &p.Goals}, {allergies, &p.Allergies}, {favoriteCuisines, &p.FavoriteCuisines}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile %s lists: %w", userID, err)
		}
	}
	return &p, nil
}

// Upsert creates or replaces the profile and stamps UpdatedAt.
func (r *Repository) Upsert(ctx context.Context, p *Profile) error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}
	goals, err := marshalList(p.Goals)
	if err != nil {
		return err
	}
	allergies, err := marshalList(p.Allergies)
	if err != nil {
		return err
	}
	cuisines, err := marshalList(p.FavoriteCuisines)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, username, full_name, goals, other_goals, allergies, specific_allergies,
		                      dietary_choice, dislikes, cooking_time, batch_cooking, household_size,
		                      meals_per_day, cooking_days_per_week, favorite_cuisines, favorite_meals, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			goals = excluded.goals,
			other_goals = excluded.other_goals,
			allergies = excluded.allergies,
			specific_allergies = excluded.specific_allergies,
			dietary_choice = excluded.dietary_choice,
			dislikes = excluded.dislikes,
			cooking_time = excluded.cooking_time,
			batch_cooking = excluded.batch_cooking,
			household_size = excluded.household_size,
			meals_per_day = excluded.meals_per_day,
			cooking_days_per_week = excluded.cooking_days_per_week,
			favorite_cuisines = excluded.favorite_cuisines,
			favorite_meals = excluded.favorite_meals,
			updated_at = excluded.updated_at`,
		p.ID, p.Username, p.FullName, goals, p.OtherGoals, allergies, p.SpecificAllergies,
		p.DietaryChoice, p.Dislikes, p.CookingTime, p.BatchCooking, p.HouseholdSize,
		p.MealsPerDay, p.CookingDaysPerWeek, cuisines, p.FavoriteMeals, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", p.ID, err)
	}
	return nil
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile list: %w", err)
	}
	return string(b), nil
}
