package health

import (
	"net/http"
	"runtime"
	"time"

	"shopping-list-generator/internal/core/shopping/store"
	"shopping-list-generator/internal/infrastructure/config"
	"shopping-list-generator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Store     *StoreStatus           `json:"store,omitempty"`
	Catalog   map[string]interface{} `json:"catalog,omitempty"`
}

// StoreStatus 清單儲存狀態
type StoreStatus struct {
	Backend string `json:"backend"`
	Lists   int    `json:"lists"`
	Error   string `json:"error,omitempty"`
}

// CatalogStatsFunc 目錄快取統計來源
type CatalogStatsFunc func() map[string]interface{}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	config, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if st, ok := storeFrom(c); ok {
		status := &StoreStatus{Backend: config.Store.Backend}
		n, err := st.Len(c.Request.Context())
		if err != nil {
			status.Error = err.Error()
			response.Status = "degraded"
		}
		status.Lists = n
		response.Store = status
	}

	if stats, ok := c.Get("catalog_stats"); ok {
		if fn, ok := stats.(CatalogStatsFunc); ok && fn != nil {
			response.Catalog = fn()
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器：儲存後端可用才算就緒
func ReadinessCheck(c *gin.Context) {
	st, ok := storeFrom(c)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"code":   common.ErrCodeServiceUnavailable,
			"error":  "store not configured",
		})
		return
	}
	if _, err := st.Len(c.Request.Context()); err != nil {
		common.LogWarn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"code":   common.ErrServiceUnavailable.Code,
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func storeFrom(c *gin.Context) (store.Store, bool) {
	v, exists := c.Get("store")
	if !exists {
		return nil, false
	}
	st, ok := v.(store.Store)
	return st, ok && st != nil
}
