package shopping

import (
	"strings"

	"shopping-list-generator/internal/core/catalog"
	core "shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/pkg/common"
)

// GenerateRequest 產生購物清單請求
type GenerateRequest struct {
	Title      string            `json:"title,omitempty"`
	StartDate  string            `json:"start_date" binding:"required"`
	EndDate    string            `json:"end_date" binding:"required"`
	FamilySize int               `json:"family_size,omitempty" binding:"gte=0"`
	MealPlan   []MealSlotRequest `json:"meal_plan" binding:"dive"`
}

// MealSlotRequest 菜單格位。可直接給 date/meal_type，或給舊版 key 由伺服器解析
type MealSlotRequest struct {
	Key      string          `json:"key,omitempty"`
	PlanID   string          `json:"plan_id,omitempty"`
	Date     string          `json:"date,omitempty"`
	MealType string          `json:"meal_type,omitempty"`
	Recipe   *core.RecipeRef `json:"recipe,omitempty"`
	RecipeID string          `json:"recipe_id,omitempty"`
	Servings *float64        `json:"servings,omitempty" binding:"omitempty,gt=0"`
}

// GenerateResponse 產生結果，warnings 列出無法解析的食譜
type GenerateResponse struct {
	*core.ShoppingList
	Warnings []catalog.Unresolved `json:"warnings,omitempty"`
}

// ToggleRequest 切換完成狀態
type ToggleRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// NotesRequest 更新備註
type NotesRequest struct {
	Notes string `json:"notes"`
}

// AddItemRequest 手動加入項目
type AddItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"gte=0"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

// ClearCompletedResponse 清除結果
type ClearCompletedResponse struct {
	Removed int                `json:"removed"`
	List    *core.ShoppingList `json:"list"`
}

func (r MealSlotRequest) slotKey() (core.SlotKey, error) {
	if r.Date != "" || r.MealType != "" {
		return core.SlotKey{PlanID: r.PlanID, Date: r.Date, MealType: r.MealType}, nil
	}
	if key := strings.TrimSpace(r.Key); key != "" {
		if parsed, ok := core.ParseLegacySlotKey(key); ok {
			return parsed, nil
		}
	}
	return core.SlotKey{}, common.NewValidationError("meal slot needs date and meal_type, or a key like <plan>-<date>-<meal>")
}

func (r GenerateRequest) slots() ([]catalog.PlanSlot, error) {
	slots := make([]catalog.PlanSlot, 0, len(r.MealPlan))
	for _, slot := range r.MealPlan {
		key, err := slot.slotKey()
		if err != nil {
			return nil, err
		}
		slots = append(slots, catalog.PlanSlot{
			Key:      key,
			Recipe:   slot.Recipe,
			RecipeID: slot.RecipeID,
			Servings: slot.Servings,
		})
	}
	return slots, nil
}

func (r GenerateRequest) options() core.Options {
	return core.Options{
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		FamilySize: r.FamilySize,
		Title:      r.Title,
	}
}
