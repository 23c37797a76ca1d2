package shopping

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shopping-list-generator/internal/pkg/common"
)

var fixedNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	n := 0
	return NewGenerator(Settings{}).
		WithClock(func() time.Time { return fixedNow }).
		WithIDGenerator(func() string {
			n++
			return "id-" + strconv.Itoa(n)
		})
}

func weekOptions() Options {
	return Options{StartDate: "2024-01-15", EndDate: "2024-01-21", FamilySize: 4}
}

func totalLen(c Categories) int {
	n := 0
	for _, items := range c {
		n += len(items)
	}
	return n
}

func TestGenerateEmptyPlan(t *testing.T) {
	list, err := newTestGenerator().Generate(nil, weekOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, list.Stats.TotalItems)
	assert.Equal(t, 0, list.Stats.CompletionPercentage)
	assert.Len(t, list.Categories, 10)
	for _, cat := range AllCategories() {
		items, ok := list.Categories[cat]
		assert.True(t, ok, "category %s present", cat)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	}
	assert.Equal(t, "Liste de courses - Semaine du 2024-01-15", list.Title)
	assert.Equal(t, StatusActive, list.Status)
	assert.Equal(t, fixedNow, list.CreatedAt)
	assert.Equal(t, fixedNow, list.LastModified)
}

func TestGenerateScalesBeforeAggregating(t *testing.T) {
	recipeA := &RecipeRef{ID: "a", Name: "Salade", Servings: 2, Ingredients: []Ingredient{
		{Name: "tomates", Quantity: 100, Unit: "g", Category: string(CategoryLeafyHerbs)},
	}}
	recipeB := &RecipeRef{ID: "b", Name: "Sauce", Servings: 4, Ingredients: []Ingredient{
		{Name: "Tomates", Quantity: 1, Unit: "kg", Category: string(CategoryLeafyHerbs)},
	}}
	plan := MealPlan{
		{Key: SlotKey{Date: "2024-01-20", MealType: "lunch"}, Recipe: recipeA},
		{Key: SlotKey{Date: "2024-01-21", MealType: "dinner"}, Recipe: recipeB},
	}

	list, err := newTestGenerator().Generate(plan, weekOptions())
	require.NoError(t, err)

	items := list.Categories[CategoryLeafyHerbs]
	require.Len(t, items, 1)
	assert.Equal(t, "tomates", items[0].Name)
	assert.InDelta(t, 1.2, items[0].Quantity, 1e-9)
	assert.Equal(t, "kg", items[0].Unit)
	assert.Len(t, items[0].Sources, 2)
	assert.Equal(t, []string{"a", "b"}, items[0].Recipes)
	assert.Equal(t, PriorityMedium, items[0].Priority)
	assert.Equal(t, 2, list.Stats.TotalRecipes)
}

func TestGenerateKeepsIncompatibleGingerRows(t *testing.T) {
	recipe := &RecipeRef{ID: "r", Name: "Poulet DG", Servings: 4, Ingredients: []Ingredient{
		{Name: "gingembre", Quantity: 200, Unit: "g", Category: string(CategorySpices)},
		{Name: "gingembre", Quantity: 2, Unit: "pièces", Category: string(CategorySpices)},
		{Name: "ail", Quantity: 2, Unit: "gousses", Category: string(CategorySpices)},
		{Name: "ail", Quantity: 3, Unit: "pièces", Category: string(CategorySpices)},
	}}
	plan := MealPlan{{Key: SlotKey{Date: "2024-01-16", MealType: "dinner"}, Recipe: recipe}}

	list, err := newTestGenerator().Generate(plan, weekOptions())
	require.NoError(t, err)

	spices := list.Categories[CategorySpices]
	require.Len(t, spices, 3)
	assert.Equal(t, "gingembre", spices[0].Name)
	assert.Equal(t, "g", spices[0].Unit)
	assert.Equal(t, "gingembre", spices[1].Name)
	assert.Equal(t, "pièces", spices[1].Unit)
	assert.Equal(t, "ail", spices[2].Name)
	assert.Equal(t, 5.0, spices[2].Quantity)
	for _, item := range spices {
		assert.Equal(t, PriorityHigh, item.Priority, "meal tomorrow is urgent")
	}

	ids := map[string]bool{list.ID: true}
	list.Categories.Each(func(_ Category, item *Item) {
		assert.False(t, ids[item.ID], "ids are unique within a run")
		ids[item.ID] = true
	})
	assert.Equal(t, totalLen(list.Categories), list.Stats.TotalItems)
}

func TestGenerateClampsNegativeQuantities(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(nil) })

	recipe := &RecipeRef{ID: "r", Servings: 4, Ingredients: []Ingredient{
		{Name: "beurre", Quantity: -50, Unit: "g", Category: string(CategoryDairy)},
	}}
	plan := MealPlan{{Key: SlotKey{Date: "2024-01-18", MealType: "dinner"}, Recipe: recipe}}

	list, err := newTestGenerator().Generate(plan, weekOptions())
	require.NoError(t, err)

	items := list.Categories[CategoryDairy]
	require.Len(t, items, 1)
	assert.Equal(t, 0.0, items[0].Quantity)
	assert.Equal(t, -50.0, items[0].Sources[0].OriginalQuantity)

	entries := logs.FilterMessage("食材數量為負值，以 0 計算").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "beurre", entries[0].ContextMap()["ingredient"])
	assert.Equal(t, -50.0, entries[0].ContextMap()["quantity"])
}

func TestGenerateDoesNotMutateRecipes(t *testing.T) {
	recipe := &RecipeRef{ID: "r", Servings: 1, Ingredients: []Ingredient{{Name: "Riz", Quantity: 100, Unit: "g"}}}
	_, err := newTestGenerator().Generate(MealPlan{{Key: SlotKey{Date: "2024-01-16", MealType: "lunch"}, Recipe: recipe}}, weekOptions())
	require.NoError(t, err)
	assert.Equal(t, 100.0, recipe.Ingredients[0].Quantity)
}

func TestGenerateOptions(t *testing.T) {
	g := newTestGenerator()

	list, err := g.Generate(nil, Options{StartDate: "2024-01-15", Title: "Courses du mois"})
	require.NoError(t, err)
	assert.Equal(t, "Courses du mois", list.Title)
	assert.Equal(t, DefaultFamilySize, list.FamilySize)

	_, err = g.Generate(nil, Options{FamilySize: -1})
	assert.True(t, common.IsValidationError(err))

	_, err = g.Generate(nil, Options{StartDate: "15/01/2024"})
	assert.True(t, common.IsValidationError(err))

	_, err = g.Generate(nil, Options{StartDate: "2024-01-21", EndDate: "2024-01-15"})
	assert.True(t, common.IsValidationError(err))
}

func TestGenerateOutputIsJSONSerialisable(t *testing.T) {
	recipe := &RecipeRef{ID: "r", Name: "Jus", Servings: 4, Ingredients: []Ingredient{
		{Name: "oranges", Quantity: 6, Unit: "pièces", Category: string(CategoryFruits)},
	}}
	list, err := newTestGenerator().Generate(MealPlan{{Key: SlotKey{Date: "2024-01-19", MealType: "breakfast"}, Recipe: recipe}}, weekOptions())
	require.NoError(t, err)

	data, err := json.Marshal(list)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	cats, ok := decoded["categories"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, cats, 10)
	stats := decoded["stats"].(map[string]any)
	assert.Equal(t, 1.0, stats["totalItems"])
}
