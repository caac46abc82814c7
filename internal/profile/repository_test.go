package profile

import (
	"context"
	"testing"

	"dont-get-fat/internal/database/databasetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(databasetest.New(t).SQL)

	t.Run("GetMissing", func(t *testing.T) {
		p, err := repo.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("UpsertAndGet", func(t *testing.T) {
		in := &Profile{
			ID:               "user-1",
			Username:         "ana",
			Goals:            []string{"Lose weight", "Eat healthier"},
			Allergies:        []string{"Peanuts"},
			DietaryChoice:    "Vegetarian",
			BatchCooking:     true,
			HouseholdSize:    "Couple (2)",
			FavoriteCuisines: []string{"Italian"},
		}
		require.NoError(t, repo.Upsert(ctx, in))
		assert.False(t, in.UpdatedAt.IsZero())

		got, err := repo.Get(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, in.Goals, got.Goals)
		assert.Equal(t, in.Allergies, got.Allergies)
		assert.Equal(t, in.FavoriteCuisines, got.FavoriteCuisines)
		assert.Equal(t, "Vegetarian", got.DietaryChoice)
		assert.True(t, got.BatchCooking)
		assert.Equal(t, "Couple (2)", got.HouseholdSize)
		assert.Empty(t, got.OtherGoals)
	})

	t.Run("UpsertReplaces", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &Profile{ID: "user-1", DietaryChoice: "Vegan"}))

		got, err := repo.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Vegan", got.DietaryChoice)
		assert.Empty(t, got.Goals)
		assert.False(t, got.BatchCooking)
	})

	t.Run("RequiresID", func(t *testing.T) {
		assert.Error(t, repo.Upsert(ctx, &Profile{}))
	})
}
