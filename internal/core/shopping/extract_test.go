package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servings(v float64) *float64 { return &v }

func TestParseLegacySlotKey(t *testing.T) {
	key, ok := ParseLegacySlotKey("week-3-20240115-dinner")
	require.True(t, ok)
	assert.Equal(t, SlotKey{PlanID: "week-3", Date: "20240115", MealType: "dinner"}, key)

	key, ok = ParseLegacySlotKey("2024-01-15-lunch")
	require.True(t, ok)
	assert.Equal(t, "15", key.Date, "hyphenated dates are truncated by the legacy convention")

	_, ok = ParseLegacySlotKey("lunch")
	assert.False(t, ok)
}

func TestExtract(t *testing.T) {
	stew := &RecipeRef{
		ID:       "r1",
		Name:     "Ndolé",
		Servings: 2,
		Ingredients: []Ingredient{
			{Name: "Feuilles de ndolé", Quantity: 300, Unit: "g", Category: string(CategoryLeafyHerbs)},
			{Name: "Crevettes", Quantity: 200, Unit: "g", Category: string(CategoryMeatFish)},
		},
	}
	plan := MealPlan{
		{Key: SlotKey{Date: "2024-01-15", MealType: "lunch"}, Recipe: stew},
		{Key: SlotKey{Date: "2024-01-16", MealType: "dinner"}, Recipe: stew, Servings: servings(1)},
		{Key: SlotKey{Date: "2024-01-17", MealType: "dinner"}},
		{Key: SlotKey{Date: "2024-01-18", MealType: "dinner"}, Recipe: &RecipeRef{ID: "empty"}},
	}

	out := Extract(plan, 4, DefaultRecipeServings)
	require.Len(t, out, 4, "one entry per ingredient per planned occurrence")

	first := out[0]
	assert.Equal(t, 600.0, first.Quantity)
	assert.Equal(t, 300.0, first.OriginalQuantity)
	assert.Equal(t, Source{
		RecipeID:         "r1",
		RecipeName:       "Ndolé",
		MealKey:          "2024-01-15-lunch",
		Date:             "2024-01-15",
		MealType:         "lunch",
		OriginalServings: 2,
	}, first.Source)

	assert.Equal(t, 150.0, out[2].Quantity, "entry servings override family size")
	assert.Equal(t, "2024-01-16", out[2].Source.Date)
}
