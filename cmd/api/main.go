package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopping-list-generator/internal/api"
	"shopping-list-generator/internal/core/catalog"
	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/core/shopping/store"
	"shopping-list-generator/internal/infrastructure/config"
	"shopping-list-generator/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("catalog_base_url", cfg.Catalog.BaseURL),
		zap.String("catalog_api_key", common.MaskSecret(cfg.Catalog.APIKey)),
		zap.Duration("urgency_window", cfg.Shopping.UrgencyWindow),
	)

	ctx := context.Background()

	listStore, err := newStore(ctx, cfg.Store)
	if err != nil {
		common.LogFatal("Failed to initialize store", zap.Error(err))
	}
	defer listStore.Close()

	// 初始化快取與目錄客戶端
	cacheManager := catalog.NewCacheManager(cfg.Cache)
	defer cacheManager.Close()
	catalogClient := catalog.NewClient(cfg.Catalog, cacheManager)

	generator := shopping.NewGenerator(shopping.Settings{
		DefaultFamilySize:     cfg.Shopping.DefaultFamilySize,
		DefaultRecipeServings: cfg.Shopping.DefaultRecipeServings,
		UrgencyWindow:         cfg.Shopping.UrgencyWindow,
		TitleFormat:           cfg.Shopping.TitleFormat,
	})

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Dependencies{
		Generator: generator,
		Store:     listStore,
		Catalog:   catalogClient,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}
	defer router.Close()

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}

func newStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
	case config.BackendMemory, "":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
