package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dont-get-fat/internal/database/databasetest"
)

func TestPlanRepository_SaveAndList(t *testing.T) {
	db := databasetest.New(t)
	repo := NewPlanRepository(db.SQL)
	ctx := context.Background()

	first, err := repo.Save(ctx, "user-1", twoByThreePlan())
	require.NoError(t, err)
	second := twoByThreePlan()
	second.Days = second.Days[:1]
	secondID, err := repo.Save(ctx, "user-1", second)
	require.NoError(t, err)
	_, err = repo.Save(ctx, "user-2", twoByThreePlan())
	require.NoError(t, err)

	entries, err := repo.ListRecentByUserID(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, secondID, entries[0].ID)
	assert.Equal(t, first, entries[1].ID)
	assert.Len(t, entries[0].Plan.Days, 1)

	limited, err := repo.ListRecentByUserID(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	got, err := repo.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, twoByThreePlan(), got.Plan)

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
