package shopping

import (
	"fmt"
	"strconv"

	"shopping-list-generator/internal/pkg/common"

	"go.uber.org/zap"
)

// aggregation 依插入順序保存彙整結果，先出現者決定名稱與分類
type aggregation struct {
	keys    []string
	entries map[string]*aggEntry
}

// aggEntry 以基準單位累計數量，輸出時才換回易讀單位
type aggEntry struct {
	item   AggregatedItem
	total  float64
	family UnitFamily
	merged bool
}

func newAggregation() *aggregation {
	return &aggregation{entries: make(map[string]*aggEntry)}
}

// Aggregate 合併正規化名稱相同且單位家族相容的食材。
// 不相容（或未知單位）的食材保留為獨立項目，單一項目合併失敗不會中斷整體流程。
func Aggregate(ingredients []SourcedIngredient) []AggregatedItem {
	agg := newAggregation()
	for _, ing := range ingredients {
		agg.add(ing)
	}
	return agg.list()
}

func (a *aggregation) add(ing SourcedIngredient) {
	name := NormalizeName(ing.Name)

	existing, ok := a.entries[name]
	if !ok {
		a.insert(name, ing)
		return
	}
	if Compatible(existing.item.Unit, ing.Unit) {
		a.mergeAt(name, ing)
		return
	}

	key := compoundKey(name, ing.Unit)
	if existing, ok := a.entries[key]; ok && Compatible(existing.item.Unit, ing.Unit) {
		a.mergeAt(key, ing)
		return
	}
	a.insert(a.freeKey(key), ing)
}

func (a *aggregation) mergeAt(key string, ing SourcedIngredient) {
	entry := a.entries[key]
	if err := entry.merge(ing); err != nil {
		common.LogWarn("食材合併失敗，保留為獨立項目",
			zap.String("ingredient", ing.Name),
			zap.String("existing_unit", entry.item.Unit),
			zap.String("incoming_unit", ing.Unit),
			zap.Error(err),
		)
		a.insert(a.freeKey(compoundKey(NormalizeName(ing.Name), ing.Unit)), ing)
	}
}

func (a *aggregation) insert(key string, ing SourcedIngredient) {
	base := ToBase(ing.Quantity, ing.Unit)
	a.keys = append(a.keys, key)
	a.entries[key] = &aggEntry{
		item: AggregatedItem{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Category: ing.Category,
			Sources:  []SourcedIngredient{ing},
		},
		total:  base.Value,
		family: base.Family,
	}
}

// merge 將食材加入累計；名稱與分類維持先出現者
func (e *aggEntry) merge(ing SourcedIngredient) error {
	base := ToBase(ing.Quantity, ing.Unit)
	if e.family == FamilyUnknown || base.Family != e.family {
		return fmt.Errorf("incompatible units %q and %q", e.item.Unit, ing.Unit)
	}
	if e.total < 0 || ing.Quantity < 0 {
		return fmt.Errorf("negative quantity %v %s + %v %s", e.item.Quantity, e.item.Unit, ing.Quantity, ing.Unit)
	}
	e.total += base.Value
	e.item.Sources = append(e.item.Sources, ing)
	e.merged = true
	return nil
}

// result 合併過的項目在此才換回易讀單位，避免每次合併都累積捨入誤差
func (e *aggEntry) result() AggregatedItem {
	if !e.merged {
		return e.item
	}
	item := e.item
	quantity, unit, err := FromBase(e.total, e.family)
	if err != nil {
		common.LogWarn("數量換算失敗，保留原始單位",
			zap.String("ingredient", item.Name),
			zap.Float64("base_total", e.total),
			zap.Error(err),
		)
		return item
	}
	item.Quantity = quantity
	item.Unit = unit
	return item
}

// freeKey 回傳尚未使用的鍵
func (a *aggregation) freeKey(key string) string {
	if _, taken := a.entries[key]; !taken {
		return key
	}
	for n := 2; ; n++ {
		candidate := key + "#" + strconv.Itoa(n)
		if _, taken := a.entries[candidate]; !taken {
			return candidate
		}
	}
}

func (a *aggregation) list() []AggregatedItem {
	out := make([]AggregatedItem, 0, len(a.keys))
	for _, key := range a.keys {
		out = append(out, a.entries[key].result())
	}
	return out
}

func compoundKey(name, unit string) string {
	return name + "|" + string(BaseFamily(unit))
}

// SumQuantities 透過基準單位相加兩個數量，並轉回易讀單位
func SumQuantities(q1 float64, u1 string, q2 float64, u2 string) (float64, string, error) {
	b1 := ToBase(q1, u1)
	b2 := ToBase(q2, u2)
	if b1.Family == FamilyUnknown || b1.Family != b2.Family {
		return 0, "", fmt.Errorf("incompatible units %q and %q", u1, u2)
	}
	if q1 < 0 || q2 < 0 {
		return 0, "", fmt.Errorf("negative quantity %v %s + %v %s", q1, u1, q2, u2)
	}
	return FromBase(b1.Value+b2.Value, b1.Family)
}
