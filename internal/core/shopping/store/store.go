// Package store 保存已產生的購物清單。更新時以整份清單替換，不在原物件上修改。
package store

import (
	"context"

	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/pkg/common"
)

// ErrListNotFound 找不到清單
var ErrListNotFound = common.ErrListNotFound

// UpdateFunc 在清單副本上套用修改
type UpdateFunc func(list *shopping.ShoppingList) error

// Store 購物清單儲存介面
type Store interface {
	// Save 儲存（或覆蓋）清單
	Save(ctx context.Context, list *shopping.ShoppingList) error
	// Get 取得清單副本
	Get(ctx context.Context, id string) (*shopping.ShoppingList, error)
	// Update 對副本執行 fn，成功後整份替換並回傳新清單
	Update(ctx context.Context, id string, fn UpdateFunc) (*shopping.ShoppingList, error)
	// Delete 刪除清單
	Delete(ctx context.Context, id string) error
	// Len 目前保存的清單數
	Len(ctx context.Context) (int, error)
	// Close 釋放資源
	Close() error
}
