package catalog

import (
	"context"
	"sync"
	"time"

	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/infrastructure/config"
	"shopping-list-generator/internal/pkg/common"

	"go.uber.org/zap"
)

// CacheManager 食譜快取（TTL + 最少使用淘汰）
type CacheManager struct {
	config config.CacheConfig
	mu     sync.Mutex
	store  map[string]cacheEntry
	stats  cacheStats
	now    func() time.Time
	done   chan struct{}
	once   sync.Once
}

// cacheEntry 緩存條目
type cacheEntry struct {
	recipe      shopping.RecipeRef
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewCacheManager 創建新的緩存管理器，停用時回傳 nil
func NewCacheManager(cfg config.CacheConfig) *CacheManager {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil
	}

	m := &CacheManager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		now:    time.Now,
		done:   make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go m.startCleanup()
	}

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return m
}

// Get 獲取緩存的食譜副本
func (m *CacheManager) Get(ctx context.Context, recipeID string) (*shopping.RecipeRef, bool) {
	if m == nil {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[recipeID]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss("recipe", recipeID)
		return nil, false
	}

	now := m.now()
	if now.After(entry.expiresAt) {
		delete(m.store, recipeID)
		m.stats.evictions++
		m.stats.misses++
		common.LogCacheMiss("recipe", recipeID)
		return nil, false
	}

	entry.lastAccess = now
	entry.accessCount++
	m.store[recipeID] = entry
	m.stats.hits++
	common.LogCacheHit("recipe", recipeID)

	recipe := copyRecipe(entry.recipe)
	return &recipe, true
}

// Set 設置緩存值
func (m *CacheManager) Set(ctx context.Context, recipe *shopping.RecipeRef) error {
	if m == nil || recipe == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[recipe.ID]; !exists && len(m.store) >= m.config.MaxSize {
		evicted := m.cleanup()
		if len(m.store) >= m.config.MaxSize {
			m.evictLRU()
		}
		if len(m.store) >= m.config.MaxSize {
			m.stats.errors++
			common.LogWarn("快取已滿", zap.Int("目前容量", len(m.store)), zap.Int("清理數量", evicted))
			return common.ErrCacheFull
		}
	}

	now := m.now()
	m.store[recipe.ID] = cacheEntry{
		recipe:     copyRecipe(*recipe),
		expiresAt:  now.Add(m.config.TTL),
		createdAt:  now,
		lastAccess: now,
	}
	return nil
}

func copyRecipe(r shopping.RecipeRef) shopping.RecipeRef {
	ingredients := make([]shopping.Ingredient, len(r.Ingredients))
	copy(ingredients, r.Ingredients)
	r.Ingredients = ingredients
	return r
}

// startCleanup 定期清理過期緩存
func (m *CacheManager) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanup 清理過期的緩存，呼叫端需持有鎖
func (m *CacheManager) cleanup() int {
	now := m.now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	if count > 0 {
		common.LogDebug("Cleaned up expired cache entries",
			zap.Int("count", count),
			zap.Int64("total_evictions", m.stats.evictions),
			zap.Int("remaining_size", len(m.store)),
		)
	}

	return count
}

// evictLRU 淘汰訪問次數最少、最久未使用的項目
func (m *CacheManager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// GetStats 獲取緩存統計信息
func (m *CacheManager) GetStats() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{"enabled": false}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"enabled":   true,
		"size":      len(m.store),
		"max_size":  m.config.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
		"hit_ratio": ratio,
	}
}

// Close 關閉緩存管理器
func (m *CacheManager) Close() error {
	if m == nil {
		return nil
	}
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
