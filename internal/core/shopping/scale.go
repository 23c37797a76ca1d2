package shopping

import (
	"shopping-list-generator/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultRecipeServings 食譜未宣告份量時的預設值
const DefaultRecipeServings = 4

// ScaleFactor 依需求份量與食譜原始份量計算縮放倍數
func ScaleFactor(requested float64, recipeServings int) float64 {
	if recipeServings <= 0 {
		recipeServings = DefaultRecipeServings
	}
	if requested <= 0 {
		return 1
	}
	return requested / float64(recipeServings)
}

// Scale 回傳縮放後的新食材，原數量保留在 OriginalQuantity
func Scale(ing SourcedIngredient, factor float64) SourcedIngredient {
	scaled := ing
	scaled.OriginalQuantity = ing.Quantity
	q := roundTo(ing.Quantity*factor, 2)
	if q < 0 {
		common.LogWarn("食材數量為負值，以 0 計算",
			zap.String("ingredient", ing.Name),
			zap.Float64("quantity", ing.Quantity),
			zap.Float64("factor", factor),
		)
		q = 0
	}
	scaled.Quantity = q
	return scaled
}
