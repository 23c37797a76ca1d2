// Package shopping 將每週菜單與食譜彙整為去重、單位正規化且已分類的購物清單。
//
// 產生流程為單一同步管線：擷取 → 縮放 → 彙整 → 分類 → 補充 → 組裝。
package shopping

import "time"

// Ingredient 食譜原始食材
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

// RecipeRef 菜單引用的食譜
type RecipeRef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Servings    int          `json:"servings"`
	Ingredients []Ingredient `json:"ingredients"`
}

// SlotKey 菜單格位鍵（取代舊版以 "-" 串接的字串鍵）
type SlotKey struct {
	PlanID   string `json:"plan_id,omitempty"`
	Date     string `json:"date"`
	MealType string `json:"meal_type"`
}

// String 回傳舊版複合鍵格式
func (k SlotKey) String() string {
	if k.PlanID == "" {
		return k.Date + "-" + k.MealType
	}
	return k.PlanID + "-" + k.Date + "-" + k.MealType
}

// PlanEntry 菜單中的單一格位
type PlanEntry struct {
	Key      SlotKey    `json:"key"`
	Recipe   *RecipeRef `json:"recipe,omitempty"`
	Servings *float64   `json:"servings,omitempty"`
}

// MealPlan 依插入順序排列的菜單
type MealPlan []PlanEntry

// Source 食材來源
type Source struct {
	RecipeID         string `json:"recipeId"`
	RecipeName       string `json:"recipeName"`
	MealKey          string `json:"mealKey"`
	Date             string `json:"date"`
	MealType         string `json:"mealType"`
	OriginalServings int    `json:"originalServings"`
}

// SourcedIngredient 附帶來源的食材，只存在於單次產生流程
type SourcedIngredient struct {
	Ingredient
	OriginalQuantity float64 `json:"originalQuantity"`
	Source           Source  `json:"source"`
}

// AggregatedItem 彙整後的食材
type AggregatedItem struct {
	Name     string              `json:"name"`
	Quantity float64             `json:"quantity"`
	Unit     string              `json:"unit"`
	Category string              `json:"category"`
	Sources  []SourcedIngredient `json:"sources"`
}

// Priority 購買優先順序
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Item 購物清單項目
type Item struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Quantity      float64             `json:"quantity"`
	Unit          string              `json:"unit"`
	Category      Category            `json:"category"`
	Sources       []SourcedIngredient `json:"sources"`
	IsCompleted   bool                `json:"isCompleted"`
	CompletedBy   *string             `json:"completedBy"`
	CompletedAt   *time.Time          `json:"completedAt"`
	Recipes       []string            `json:"recipes"`
	RecipeNames   []string            `json:"recipeNames"`
	Priority      Priority            `json:"priority"`
	Notes         *string             `json:"notes"`
	EstimatedCost *float64            `json:"estimatedCost"`
	Store         *string             `json:"store"`
}

// Stats 清單統計，永遠由 categories 重新計算
type Stats struct {
	TotalItems           int `json:"totalItems"`
	CompletedItems       int `json:"completedItems"`
	TotalRecipes         int `json:"totalRecipes"`
	CompletionPercentage int `json:"completionPercentage"`
}

// Status 清單狀態
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// ShoppingList 購物清單
type ShoppingList struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	StartDate    string     `json:"startDate"`
	EndDate      string     `json:"endDate"`
	FamilySize   int        `json:"familySize"`
	Status       Status     `json:"status"`
	Categories   Categories `json:"categories"`
	Stats        Stats      `json:"stats"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastModified time.Time  `json:"lastModified"`
}

// Options 產生選項
type Options struct {
	StartDate  string
	EndDate    string
	FamilySize int
	Title      string
}
