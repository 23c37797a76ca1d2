package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要可用的 redis，例如 REDIS_TEST_ADDR=localhost:6379
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	s, err := NewRedisStore(ctx, RedisOptions{Addr: addr, DB: 15, TTL: time.Minute})
	require.NoError(t, err)

	cleanup := func() {
		iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			s.client.Del(ctx, iter.Val())
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		_ = s.Close()
	})
	return s
}

func TestListKey(t *testing.T) {
	assert.Equal(t, "shopping:list:abc", listKey("abc"))
}

func TestWatchWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries after a conflict", func(t *testing.T) {
		calls := 0
		err := watchWithRetry(ctx, "l1", func() error {
			calls++
			if calls == 1 {
				return redis.TxFailedErr
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up with a conflict error", func(t *testing.T) {
		calls := 0
		err := watchWithRetry(ctx, "l1", func() error {
			calls++
			return redis.TxFailedErr
		})
		assert.Equal(t, maxUpdateRetries, calls)
		assert.True(t, errors.Is(err, common.ErrConflict))
	})

	t.Run("other errors are returned without retrying", func(t *testing.T) {
		calls := 0
		err := watchWithRetry(ctx, "l1", func() error {
			calls++
			return ErrListNotFound
		})
		assert.Equal(t, 1, calls)
		assert.True(t, errors.Is(err, ErrListNotFound))
	})

	t.Run("stops retrying once the context is done", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		calls := 0
		err := watchWithRetry(cancelled, "l1", func() error {
			calls++
			cancel()
			return redis.TxFailedErr
		})
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := NewRedisStore(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	list := newList(t)

	require.NoError(t, s.Save(ctx, list))

	got, err := s.Get(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, list.Title, got.Title)
	assert.Equal(t, list.Stats, got.Stats)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var itemID string
	got.Categories.Each(func(_ shopping.Category, item *shopping.Item) {
		if itemID == "" {
			itemID = item.ID
		}
	})
	updated, err := s.Update(ctx, list.ID, func(l *shopping.ShoppingList) error {
		_, err := l.ToggleItem(itemID, "user-1", time.Now())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Stats.CompletedItems)

	_, err = s.Update(ctx, list.ID, func(l *shopping.ShoppingList) error {
		_, err := l.ToggleItem("ghost", "", time.Now())
		return err
	})
	assert.ErrorIs(t, err, common.ErrItemNotFound)

	require.NoError(t, s.Delete(ctx, list.ID))
	_, err = s.Get(ctx, list.ID)
	assert.True(t, errors.Is(err, ErrListNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, list.ID), ErrListNotFound))
}

func TestRedisStoreConcurrentUpdates(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	list := newList(t)
	require.NoError(t, s.Save(ctx, list))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, list.ID, func(l *shopping.ShoppingList) error {
				_, err := l.AddCustomItem(shopping.Ingredient{Name: "sel", Quantity: 1, Unit: "g", Category: string(shopping.CategorySpices)}, common.GenerateUUID(), time.Now())
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, common.ErrConflict)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, list.ID)
	require.NoError(t, err)
	var salt *shopping.Item
	got.Categories.Each(func(_ shopping.Category, item *shopping.Item) {
		if item.Name == "sel" {
			salt = item
		}
	})
	require.NotNil(t, salt)
	assert.Equal(t, float64(succeeded), salt.Quantity, "no update is lost")
}
