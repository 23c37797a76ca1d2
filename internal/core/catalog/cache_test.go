package catalog

import (
	"context"
	"testing"
	"time"

	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/infrastructure/config"
	"shopping-list-generator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, maxSize int, ttl time.Duration) (*CacheManager, *time.Time) {
	t.Helper()
	m := NewCacheManager(config.CacheConfig{Enabled: true, MaxSize: maxSize, TTL: ttl})
	require.NotNil(t, m)
	t.Cleanup(func() { _ = m.Close() })

	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestCacheManagerDisabled(t *testing.T) {
	m := NewCacheManager(config.CacheConfig{Enabled: false})
	assert.Nil(t, m)

	_, ok := m.Get(context.Background(), "r1")
	assert.False(t, ok)
	assert.NoError(t, m.Set(context.Background(), &shopping.RecipeRef{ID: "r1"}))
	assert.Equal(t, false, m.GetStats()["enabled"])
	assert.NoError(t, m.Close())
}

func TestCacheManagerGetReturnsCopy(t *testing.T) {
	m, _ := newTestCache(t, 10, time.Hour)
	ctx := context.Background()

	recipe := &shopping.RecipeRef{
		ID:          "r1",
		Name:        "Crêpes",
		Servings:    4,
		Ingredients: []shopping.Ingredient{{Name: "farine", Quantity: 250, Unit: "g"}},
	}
	require.NoError(t, m.Set(ctx, recipe))
	recipe.Ingredients[0].Quantity = 1

	got, ok := m.Get(ctx, "r1")
	require.True(t, ok)
	assert.Equal(t, 250.0, got.Ingredients[0].Quantity)

	got.Ingredients[0].Quantity = 2
	again, ok := m.Get(ctx, "r1")
	require.True(t, ok)
	assert.Equal(t, 250.0, again.Ingredients[0].Quantity)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["hits"])
	assert.Equal(t, 1, stats["size"])
}

func TestCacheManagerExpiry(t *testing.T) {
	m, now := newTestCache(t, 10, time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, &shopping.RecipeRef{ID: "r1"}))
	*now = now.Add(2 * time.Minute)

	_, ok := m.Get(ctx, "r1")
	assert.False(t, ok)
	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, int64(1), stats["evictions"])
	assert.Equal(t, 0, stats["size"])
}

func TestCacheManagerEvictsLeastUsed(t *testing.T) {
	m, now := newTestCache(t, 2, time.Hour)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, &shopping.RecipeRef{ID: "a"}))
	*now = now.Add(time.Second)
	require.NoError(t, m.Set(ctx, &shopping.RecipeRef{ID: "b"}))
	_, ok := m.Get(ctx, "a")
	require.True(t, ok)

	require.NoError(t, m.Set(ctx, &shopping.RecipeRef{ID: "c"}))

	_, ok = m.Get(ctx, "b")
	assert.False(t, ok, "b was never read and should be evicted")
	_, ok = m.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = m.Get(ctx, "c")
	assert.True(t, ok)
}

func TestCacheManagerFullWithZeroCapacity(t *testing.T) {
	m, _ := newTestCache(t, 0, time.Hour)

	err := m.Set(context.Background(), &shopping.RecipeRef{ID: "a"})
	assert.ErrorIs(t, err, common.ErrCacheFull)
}
