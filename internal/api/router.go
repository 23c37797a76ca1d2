package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shopping-list-generator/internal/api/handlers/health"
	shoppingHandler "shopping-list-generator/internal/api/handlers/shopping"
	"shopping-list-generator/internal/api/middleware"
	"shopping-list-generator/internal/core/catalog"
	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/core/shopping/store"
	"shopping-list-generator/internal/infrastructure/config"
	"shopping-list-generator/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 單一請求的處理時限
const timeoutDuration = 30 * time.Second

const apiBasePath = "/api/v1"

// Dependencies 路由所需的服務
type Dependencies struct {
	Generator *shopping.Generator
	Store     store.Store
	Catalog   *catalog.Client
}

// Router 已設定的路由引擎與其背景資源
type Router struct {
	*gin.Engine
	limiter *middleware.ClientLimiter
	dedup   *middleware.Deduplicator
}

// Close 停止中間件的背景工作
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
	if r.dedup != nil {
		r.dedup.Close()
	}
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*Router, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps.Generator == nil || deps.Store == nil {
		return nil, errors.New("generator and store are required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	var limiter *middleware.ClientLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewClientLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		router.Use(limiter.Middleware())
	}
	dedup := middleware.NewDeduplicator(cfg.DedupWindow, shoppingHandler.RepeatableRoutes(apiBasePath)...)
	router.Use(dedup.Middleware())

	var catalogStats health.CatalogStatsFunc
	var fetcher catalog.Fetcher
	if deps.Catalog != nil {
		catalogStats = deps.Catalog.CacheStats
		fetcher = deps.Catalog
	}

	// 全局中間件：設置超時和服務
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("store", deps.Store)
		c.Set("catalog_stats", catalogStats)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: common.ErrGatewayTimeout.Message,
			})
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: common.ErrNotFound.Message,
		})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, common.ErrorResponse{
			Code:    common.ErrCodeMethodNotAllowed,
			Message: common.ErrMethodNotAllowed.Message,
		})
	})

	// API 路由組
	api := router.Group(apiBasePath)
	resolver := catalog.NewResolver(fetcher, cfg.Catalog.Workers)
	shoppingHandler.NewHandler(deps.Generator, deps.Store, resolver, cfg.App.Debug).Register(api)

	settings := deps.Generator.Settings()
	common.LogInfo("Router setup completed successfully",
		zap.String("store_backend", cfg.Store.Backend),
		zap.Bool("catalog_enabled", deps.Catalog != nil),
		zap.Int("catalog_workers", cfg.Catalog.Workers),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Int("default_family_size", settings.DefaultFamilySize),
		zap.Int("default_recipe_servings", settings.DefaultRecipeServings),
		zap.Duration("urgency_window", settings.UrgencyWindow),
	)

	return &Router{Engine: router, limiter: limiter, dedup: dedup}, nil
}
