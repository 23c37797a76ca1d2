package shopping

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"shopping-list-generator/internal/pkg/common"
)

// ManualMealKey 手動加入項目的來源鍵
const ManualMealKey = "manual"

var (
	// ErrItemNotFound 清單中找不到項目
	ErrItemNotFound = common.ErrItemNotFound
	// ErrUnknownCategory 分類不在固定分類中
	ErrUnknownCategory = common.ErrUnknownCategory

	errNilList = errors.New("shopping list is nil")
)

// 以下操作皆在修改後完整重算 Stats，不做增量更新

// FindItem 依識別碼尋找項目
func (l *ShoppingList) FindItem(itemID string) (*Item, Category, bool) {
	if l == nil {
		return nil, "", false
	}
	for _, cat := range categoryOrder {
		for _, item := range l.Categories[cat] {
			if item.ID == itemID {
				return item, cat, true
			}
		}
	}
	return nil, "", false
}

// ToggleItem 切換項目完成狀態
func (l *ShoppingList) ToggleItem(itemID, userID string, at time.Time) (*Item, error) {
	if l == nil {
		return nil, errNilList
	}
	item, _, ok := l.FindItem(itemID)
	if !ok {
		return nil, fmt.Errorf("toggle %s: %w", itemID, ErrItemNotFound)
	}

	item.IsCompleted = !item.IsCompleted
	if item.IsCompleted {
		completedAt := at
		item.CompletedAt = &completedAt
		if userID != "" {
			by := userID
			item.CompletedBy = &by
		}
	} else {
		item.CompletedAt = nil
		item.CompletedBy = nil
	}

	l.touch(at)
	return item, nil
}

// ClearCompleted 移除分類中所有已完成項目，回傳移除數量
func (l *ShoppingList) ClearCompleted(category Category, at time.Time) (int, error) {
	if l == nil {
		return 0, errNilList
	}
	if _, ok := ParseCategory(string(category)); !ok {
		return 0, fmt.Errorf("clear %q: %w", category, ErrUnknownCategory)
	}

	kept := make([]*Item, 0, len(l.Categories[category]))
	for _, item := range l.Categories[category] {
		if !item.IsCompleted {
			kept = append(kept, item)
		}
	}
	removed := len(l.Categories[category]) - len(kept)
	l.Categories[category] = kept

	l.touch(at)
	return removed, nil
}

// UpdateNotes 設定項目備註，空字串清除備註
func (l *ShoppingList) UpdateNotes(itemID, notes string, at time.Time) (*Item, error) {
	if l == nil {
		return nil, errNilList
	}
	item, _, ok := l.FindItem(itemID)
	if !ok {
		return nil, fmt.Errorf("notes %s: %w", itemID, ErrItemNotFound)
	}

	if strings.TrimSpace(notes) == "" {
		item.Notes = nil
	} else {
		n := notes
		item.Notes = &n
	}

	l.touch(at)
	return item, nil
}

// RemoveItem 移除單一項目
func (l *ShoppingList) RemoveItem(itemID string, at time.Time) error {
	if l == nil {
		return errNilList
	}
	_, cat, ok := l.FindItem(itemID)
	if !ok {
		return fmt.Errorf("remove %s: %w", itemID, ErrItemNotFound)
	}

	items := l.Categories[cat]
	kept := make([]*Item, 0, len(items)-1)
	for _, item := range items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	l.Categories[cat] = kept

	l.touch(at)
	return nil
}

// AddCustomItem 手動加入項目。若同分類已有名稱相同且單位相容的項目則合併數量並重設為未完成
func (l *ShoppingList) AddCustomItem(ing Ingredient, newID string, at time.Time) (*Item, error) {
	if l == nil {
		return nil, errNilList
	}
	if strings.TrimSpace(ing.Name) == "" {
		return nil, common.NewValidationError("item name is required")
	}
	if ing.Quantity < 0 || math.IsNaN(ing.Quantity) || math.IsInf(ing.Quantity, 0) {
		return nil, common.NewValidationError("item quantity must be a non-negative number")
	}

	cat := CategoryFor(ing.Category)
	sourced := SourcedIngredient{
		Ingredient:       ing,
		OriginalQuantity: ing.Quantity,
		Source:           Source{MealKey: ManualMealKey},
	}

	name := NormalizeName(ing.Name)
	for _, item := range l.Categories[cat] {
		if NormalizeName(item.Name) != name || !Compatible(item.Unit, ing.Unit) {
			continue
		}
		quantity, unit, err := SumQuantities(item.Quantity, item.Unit, ing.Quantity, ing.Unit)
		if err != nil {
			return nil, fmt.Errorf("merge %q: %w", ing.Name, err)
		}
		item.Quantity = quantity
		item.Unit = unit
		item.Sources = append(item.Sources, sourced)
		item.IsCompleted = false
		item.CompletedAt = nil
		item.CompletedBy = nil

		l.touch(at)
		return item, nil
	}

	item := &Item{
		ID:          newID,
		Name:        ing.Name,
		Quantity:    ing.Quantity,
		Unit:        ing.Unit,
		Category:    cat,
		Sources:     []SourcedIngredient{sourced},
		Recipes:     []string{},
		RecipeNames: []string{},
		Priority:    PriorityLow,
	}
	l.Categories[cat] = append(l.Categories[cat], item)

	l.touch(at)
	return item, nil
}

// Archive 將清單標記為封存；已封存的清單不再更新修改時間
func (l *ShoppingList) Archive(at time.Time) error {
	if l == nil {
		return errNilList
	}
	if l.Status == StatusArchived {
		return nil
	}
	l.Status = StatusArchived
	l.touch(at)
	return nil
}

func (l *ShoppingList) touch(at time.Time) {
	l.LastModified = at
	l.RecomputeStats()
}

// Clone 深拷貝清單，讓持有者可以整體替換而非原地修改
func (l *ShoppingList) Clone() (*ShoppingList, error) {
	if l == nil {
		return nil, errNilList
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shopping list: %w", err)
	}
	var clone ShoppingList
	if err := common.ParseJSONBytes(data, &clone); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list: %w", err)
	}
	return &clone, nil
}
