package store

import (
	"context"
	"fmt"
	"sync"

	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 記憶體儲存
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string]*shopping.ShoppingList
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists: make(map[string]*shopping.ShoppingList),
	}
}

// Save 儲存清單副本
func (s *MemoryStore) Save(ctx context.Context, list *shopping.ShoppingList) error {
	clone, err := list.Clone()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lists[clone.ID] = clone
	s.mu.Unlock()

	common.LogDebug("清單已儲存", zap.String("list_id", clone.ID))
	return nil
}

// Get 取得清單副本
func (s *MemoryStore) Get(ctx context.Context, id string) (*shopping.ShoppingList, error) {
	s.mu.RLock()
	list, ok := s.lists[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrListNotFound)
	}
	return list.Clone()
}

// Update 在副本上修改後替換參考
func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (*shopping.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lists[id]
	if !ok {
		return nil, fmt.Errorf("update %s: %w", id, ErrListNotFound)
	}

	next, err := current.Clone()
	if err != nil {
		return nil, err
	}
	if err := fn(next); err != nil {
		return nil, err
	}
	s.lists[id] = next

	return next.Clone()
}

// Delete 刪除清單
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrListNotFound)
	}
	delete(s.lists, id)
	return nil
}

// Len 清單數
func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists), nil
}

// Close 清空儲存
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	common.LogInfo("記憶體儲存已關閉", zap.Int("lists", len(s.lists)))
	s.lists = make(map[string]*shopping.ShoppingList)
	return nil
}
