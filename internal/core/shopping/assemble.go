package shopping

import (
	"math"
)

// ComputeStats 由 categories 完整重新計算統計
func ComputeStats(categories Categories) Stats {
	var stats Stats
	recipes := make(map[string]bool)
	categories.Each(func(_ Category, item *Item) {
		stats.TotalItems++
		if item.IsCompleted {
			stats.CompletedItems++
		}
		for _, id := range item.Recipes {
			recipes[id] = true
		}
	})
	stats.TotalRecipes = len(recipes)
	if stats.TotalItems > 0 {
		stats.CompletionPercentage = int(math.Round(100 * float64(stats.CompletedItems) / float64(stats.TotalItems)))
	}
	return stats
}

// RecomputeStats 重新計算清單統計
func (l *ShoppingList) RecomputeStats() {
	l.Stats = ComputeStats(l.Categories)
}

// DefaultTitle 未指定標題時使用的標題
func DefaultTitle(format, startDate string) string {
	if format == "" {
		format = DefaultTitleFormat
	}
	return formatTitle(format, startDate)
}
