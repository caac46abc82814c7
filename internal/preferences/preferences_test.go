package preferences

import (
	"testing"

	"dont-get-fat/internal/profile"
	"dont-get-fat/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithoutProfile(t *testing.T) {
	_, err := Resolve(nil)
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestResolveFullProfile(t *testing.T) {
	p := &profile.Profile{
		Goals:              []string{"Lose weight", "Save money"},
		OtherGoals:         "More energy",
		Allergies:          []string{"Peanuts", "Shellfish"},
		SpecificAllergies:  "",
		DietaryChoice:      "Vegetarian",
		Dislikes:           "mushrooms",
		CookingTime:        "Quick (<15 min)",
		BatchCooking:       true,
		HouseholdSize:      "Couple (2)",
		MealsPerDay:        "3",
		CookingDaysPerWeek: "5",
		FavoriteCuisines:   []string{"Italian", "Mexican"},
		FavoriteMeals:      "Lasagna",
	}

	prefs, err := Resolve(p)
	require.NoError(t, err)

	assert.Equal(t, "Vegetarian", prefs.Diet)
	assert.Equal(t, 2, prefs.Servings)
	assert.Nil(t, prefs.Calories)
	assert.Equal(t, "Peanuts, Shellfish, mushrooms", prefs.Dislikes)
	assert.Equal(t, "Goals: Lose weight, Save money; Other: More energy\n"+
		"Dietary Choice: Vegetarian\n"+
		"Dislikes/Allergies: Peanuts, Shellfish, mushrooms\n"+
		"Cooking Time Preference: Quick (<15 min)\n"+
		"Likes Batch Cooking: Yes\n"+
		"Household Size/Servings: Couple (2) (2 servings planned)\n"+
		"Meals Per Day: 3\n"+
		"Cooking Days Per Week: 5\n"+
		"Favorite Cuisines: Italian, Mexican\n"+
		"Favorite Meals Examples: Lasagna", prefs.Preferences)
	assert.NoError(t, prefs.Validate())
}

func TestResolveEmptyProfileUsesPlaceholders(t *testing.T) {
	prefs, err := Resolve(&profile.Profile{})
	require.NoError(t, err)

	assert.Equal(t, "None", prefs.Diet)
	assert.Equal(t, 1, prefs.Servings)
	assert.Equal(t, "", prefs.Dislikes)
	assert.Equal(t, "Goals: Not specified\n"+
		"Dietary Choice: Not specified\n"+
		"Dislikes/Allergies: None\n"+
		"Cooking Time Preference: Not specified\n"+
		"Likes Batch Cooking: No\n"+
		"Household Size/Servings: Not specified (1 servings planned)\n"+
		"Meals Per Day: Not specified\n"+
		"Cooking Days Per Week: Not specified\n"+
		"Favorite Cuisines: None\n"+
		"Favorite Meals Examples: None specified", prefs.Preferences)
}

func TestResolveDoesNotMutateAllergies(t *testing.T) {
	allergies := make([]string, 1, 4)
	allergies[0] = "Soy"
	p := &profile.Profile{Allergies: allergies, Dislikes: "olives"}

	_, err := Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Soy"}, p.Allergies)
	assert.Equal(t, "", allergies[:2][1], "spare capacity must not be written")
}

func TestServingsFor(t *testing.T) {
	tests := map[string]int{
		"Just me (1)":         1,
		"Couple (2)":          2,
		"Family (3+)":         3,
		"":                    1,
		"Big household":       1,
		"Between (1) and (2)": 2,
	}
	for label, want := range tests {
		t.Run(label, func(t *testing.T) {
			assert.Equal(t, want, ServingsFor(label))
		})
	}
}

func TestValidate(t *testing.T) {
	cal := func(v float64) *float64 { return &v }

	assert.NoError(t, Preferences{Diet: "None", Servings: 1}.Validate())
	assert.NoError(t, Preferences{Diet: "None", Servings: 2, Calories: cal(1800)}.Validate())
	assert.ErrorIs(t, Preferences{Diet: "", Servings: 1}.Validate(), ErrInvalidPreferences)
	assert.ErrorIs(t, Preferences{Diet: "None", Servings: 0}.Validate(), ErrInvalidPreferences)
	assert.ErrorIs(t, Preferences{Diet: "None", Servings: 1, Calories: cal(0)}.Validate(), ErrInvalidPreferences)
}

func TestStore(t *testing.T) {
	s := storage.NewMemoryStore()

	store := NewStore(s)
	assert.Nil(t, store.Get())

	store.Set(Preferences{Diet: "Vegan", Servings: 2})
	require.NotNil(t, store.Get())
	assert.Equal(t, "Vegan", store.Get().Diet)

	reloaded := NewStore(s)
	require.NotNil(t, reloaded.Get())
	assert.Equal(t, Preferences{Diet: "Vegan", Servings: 2}, *reloaded.Get())

	require.NoError(t, s.Save(storage.PreferencesKey, []byte("oops")))
	assert.Nil(t, NewStore(s).Get())
}

func TestStore_CaloriesNotShared(t *testing.T) {
	store := NewStore(storage.NewMemoryStore())
	calories := 2000.0

	in := Preferences{Diet: "None", Servings: 1, Calories: &calories}
	store.Set(in)
	*in.Calories = 1

	got := store.Get()
	require.NotNil(t, got.Calories)
	assert.Equal(t, 2000.0, *got.Calories)

	*got.Calories = 5
	assert.Equal(t, 2000.0, *store.Get().Calories)
}
