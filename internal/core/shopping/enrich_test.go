package shopping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withDate(date, recipeID, recipeName string) SourcedIngredient {
	return SourcedIngredient{Source: Source{RecipeID: recipeID, RecipeName: recipeName, Date: date}}
}

func TestEnricherPriority(t *testing.T) {
	e := Enricher{
		Now:           time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		UrgencyWindow: DefaultUrgencyWindow,
	}

	assert.Equal(t, PriorityHigh, e.Priority([]SourcedIngredient{withDate("2024-01-15", "a", "A")}))
	assert.Equal(t, PriorityHigh, e.Priority([]SourcedIngredient{withDate("2024-01-17", "a", "A")}))
	assert.Equal(t, PriorityLow, e.Priority([]SourcedIngredient{withDate("2024-01-18", "a", "A")}))
	assert.Equal(t, PriorityLow, e.Priority([]SourcedIngredient{withDate("2024-01-14", "a", "A")}), "past meals are not urgent")
	assert.Equal(t, PriorityLow, e.Priority([]SourcedIngredient{withDate("not-a-date", "a", "A")}))
	assert.Equal(t, PriorityMedium, e.Priority([]SourcedIngredient{
		withDate("2024-01-20", "a", "A"),
		withDate("2024-01-21", "b", "B"),
	}))
	assert.Equal(t, PriorityHigh, e.Priority([]SourcedIngredient{
		withDate("2024-01-20", "a", "A"),
		withDate("2024-01-16", "b", "B"),
	}))
}

func TestEnrich(t *testing.T) {
	e := Enricher{
		Now:           time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		UrgencyWindow: DefaultUrgencyWindow,
		NewID:         func() string { return "item-1" },
	}
	item := e.Enrich(AggregatedItem{
		Name:     "riz",
		Quantity: 1,
		Unit:     "kg",
		Sources: []SourcedIngredient{
			withDate("2024-01-20", "r1", "Riz sauté"),
			withDate("2024-01-22", "r1", "Riz sauté"),
			withDate("2024-01-23", "r2", "Riz au gras"),
		},
	}, CategoryGrainsPulse)

	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, CategoryGrainsPulse, item.Category)
	assert.Equal(t, []string{"r1", "r2"}, item.Recipes)
	assert.Equal(t, []string{"Riz sauté", "Riz au gras"}, item.RecipeNames)
	assert.Equal(t, PriorityMedium, item.Priority)
	assert.False(t, item.IsCompleted)
	assert.Nil(t, item.CompletedBy)
	assert.Nil(t, item.CompletedAt)
	assert.Nil(t, item.Notes)
	assert.Nil(t, item.EstimatedCost)
	assert.Nil(t, item.Store)
}
