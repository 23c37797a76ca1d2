package shopping

import (
	"strings"
)

// ParseLegacySlotKey 解析舊版 "<...>-<date>-<mealType>" 複合鍵：取最後兩段作為日期與餐別，
// 其餘部分作為 PlanID。日期本身若含 "-" 將被截斷，新程式應直接使用 SlotKey。
func ParseLegacySlotKey(key string) (SlotKey, bool) {
	parts := strings.Split(key, "-")
	if len(parts) < 2 {
		return SlotKey{}, false
	}
	n := len(parts)
	return SlotKey{
		PlanID:   strings.Join(parts[:n-2], "-"),
		Date:     parts[n-2],
		MealType: parts[n-1],
	}, true
}

// Extract 走訪菜單，為每個食材加上來源並依份量縮放。
// 缺少食譜或食材的格位直接略過。
func Extract(plan MealPlan, familySize float64, defaultServings int) []SourcedIngredient {
	var out []SourcedIngredient
	for _, entry := range plan {
		recipe := entry.Recipe
		if recipe == nil || len(recipe.Ingredients) == 0 {
			continue
		}

		servings := recipe.Servings
		if servings <= 0 {
			servings = defaultServings
		}
		if servings <= 0 {
			servings = DefaultRecipeServings
		}

		requested := familySize
		if entry.Servings != nil && *entry.Servings > 0 {
			requested = *entry.Servings
		}
		factor := ScaleFactor(requested, servings)

		source := Source{
			RecipeID:         recipe.ID,
			RecipeName:       recipe.Name,
			MealKey:          entry.Key.String(),
			Date:             entry.Key.Date,
			MealType:         entry.Key.MealType,
			OriginalServings: servings,
		}
		for _, ing := range recipe.Ingredients {
			out = append(out, Scale(SourcedIngredient{Ingredient: ing, Source: source}, factor))
		}
	}
	return out
}
