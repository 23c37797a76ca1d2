package shopping

import (
	"time"
)

const isoDate = "2006-01-02"

// DefaultUrgencyWindow 餐點日期在此範圍內視為急需
const DefaultUrgencyWindow = 48 * time.Hour

// Enricher 為彙整項目加上優先順序、識別碼與來源食譜
type Enricher struct {
	Now           time.Time
	UrgencyWindow time.Duration
	NewID         func() string
}

// Enrich 產生使用者可見的清單項目
func (e Enricher) Enrich(item AggregatedItem, category Category) *Item {
	ids, names := recipeUnion(item.Sources)
	return &Item{
		ID:          e.NewID(),
		Name:        item.Name,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		Category:    category,
		Sources:     item.Sources,
		Recipes:     ids,
		RecipeNames: names,
		Priority:    e.Priority(item.Sources),
	}
}

// Priority 近期餐點為 high，多個來源為 medium，其餘為 low
func (e Enricher) Priority(sources []SourcedIngredient) Priority {
	for _, s := range sources {
		if e.isUrgent(s.Source.Date) {
			return PriorityHigh
		}
	}
	if len(sources) > 1 {
		return PriorityMedium
	}
	return PriorityLow
}

// isUrgent 以日為單位比較：今天起算在急需範圍內（含今天）的餐點
func (e Enricher) isUrgent(date string) bool {
	mealDate, err := time.ParseInLocation(isoDate, date, e.Now.Location())
	if err != nil {
		return false
	}
	y, m, d := e.Now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, e.Now.Location())
	diff := mealDate.Sub(today)
	return diff >= 0 && diff <= e.UrgencyWindow
}

func recipeUnion(sources []SourcedIngredient) ([]string, []string) {
	ids := []string{}
	names := []string{}
	seenIDs := make(map[string]bool)
	seenNames := make(map[string]bool)
	for _, s := range sources {
		if id := s.Source.RecipeID; id != "" && !seenIDs[id] {
			seenIDs[id] = true
			ids = append(ids, id)
		}
		if name := s.Source.RecipeName; name != "" && !seenNames[name] {
			seenNames[name] = true
			names = append(names, name)
		}
	}
	return ids, names
}
