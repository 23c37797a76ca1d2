package shopping

import (
	"bytes"
	"encoding/json"
)

// Category 購物分類
type Category string

// 固定分類，順序即顯示優先順序
const (
	CategoryLeafyHerbs  Category = "Légumes-feuilles & Aromates"
	CategoryMeatFish    Category = "Viandes & Poissons"
	CategoryGrainsPulse Category = "Céréales & Légumineuses"
	CategoryTubers      Category = "Tubercules & Plantains"
	CategorySpices      Category = "Épices & Piments"
	CategoryOilsSauces  Category = "Huiles & Condiments"
	CategoryDairy       Category = "Produits laitiers"
	CategoryFruits      Category = "Fruits"
	CategoryDrinks      Category = "Boissons"
	CategoryOther       Category = "Autres"
)

var categoryOrder = [...]Category{
	CategoryLeafyHerbs,
	CategoryMeatFish,
	CategoryGrainsPulse,
	CategoryTubers,
	CategorySpices,
	CategoryOilsSauces,
	CategoryDairy,
	CategoryFruits,
	CategoryDrinks,
	CategoryOther,
}

// AllCategories 回傳依顯示順序排列的分類副本
func AllCategories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder[:])
	return out
}

// ParseCategory 精確比對分類名稱
func ParseCategory(name string) (Category, bool) {
	for _, c := range categoryOrder {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// CategoryFor 回傳食材所屬分類，未知或空白歸入 Autres
func CategoryFor(name string) Category {
	if c, ok := ParseCategory(name); ok {
		return c
	}
	return CategoryOther
}

// Categories 分類 → 項目。序列化時固定輸出十個分類鍵
type Categories map[Category][]*Item

// NewCategories 建立含十個空分類的 Categories
func NewCategories() Categories {
	c := make(Categories, len(categoryOrder))
	for _, cat := range categoryOrder {
		c[cat] = []*Item{}
	}
	return c
}

// MarshalJSON 依顯示順序輸出所有分類
func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range categoryOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(cat))
		if err != nil {
			return nil, err
		}
		items := c[cat]
		if items == nil {
			items = []*Item{}
		}
		value, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 讀回分類，未知鍵併入 Autres 並補齊缺少的分類
func (c *Categories) UnmarshalJSON(data []byte) error {
	raw := make(map[string][]*Item)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := NewCategories()
	for _, cat := range categoryOrder {
		out[cat] = append(out[cat], raw[string(cat)]...)
	}
	for name, items := range raw {
		if _, ok := ParseCategory(name); !ok {
			out[CategoryOther] = append(out[CategoryOther], items...)
		}
	}
	*c = out
	return nil
}

// Each 依顯示順序走訪所有項目
func (c Categories) Each(fn func(cat Category, item *Item)) {
	for _, cat := range categoryOrder {
		for _, item := range c[cat] {
			fn(cat, item)
		}
	}
}

// Categorize 將彙整後的項目放入分類，不做改名或翻譯
func Categorize(items []AggregatedItem) map[Category][]AggregatedItem {
	out := make(map[Category][]AggregatedItem, len(categoryOrder))
	for _, cat := range categoryOrder {
		out[cat] = []AggregatedItem{}
	}
	for _, item := range items {
		cat := CategoryFor(item.Category)
		out[cat] = append(out[cat], item)
	}
	return out
}
