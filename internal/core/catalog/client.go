// Package catalog 從外部食譜目錄服務取得菜單引用的食譜。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/infrastructure/config"
	"shopping-list-generator/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	// ErrRecipeNotFound 目錄中找不到食譜
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrCatalogDisabled 未設定目錄服務
	ErrCatalogDisabled = errors.New("recipe catalog is not configured")
)

// Fetcher 依識別碼取得食譜
type Fetcher interface {
	FetchRecipe(ctx context.Context, id string) (*shopping.RecipeRef, error)
}

// Client 食譜目錄 HTTP 客戶端
type Client struct {
	client *resty.Client
	cache  *CacheManager
}

// apiError 目錄服務錯誤響應
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient 創建目錄客戶端，未設定 base_url 時回傳 nil
func NewClient(cfg config.CatalogConfig, cache *CacheManager) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		common.LogInfo("Recipe catalog disabled")
		return nil
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	common.LogInfo("Recipe catalog client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("retries", cfg.Retries),
	)

	return &Client{client: client, cache: cache}
}

// FetchRecipe 取得食譜，優先使用快取
func (c *Client) FetchRecipe(ctx context.Context, id string) (*shopping.RecipeRef, error) {
	if c == nil {
		return nil, ErrCatalogDisabled
	}
	if id == "" {
		return nil, common.NewValidationError("recipe id is required")
	}

	if recipe, ok := c.cache.Get(ctx, id); ok {
		return recipe, nil
	}

	var recipe shopping.RecipeRef
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&recipe).
		SetError(&apiErr).
		Get("/recipes/" + url.PathEscape(id))
	if err != nil {
		return nil, common.ErrCatalogError.Wrap(fmt.Errorf("fetch recipe %s: %w", id, err))
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("recipe %s: %w", id, ErrRecipeNotFound)
	case resp.IsError():
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error
		}
		return nil, common.ErrCatalogError.Wrap(fmt.Errorf("fetch recipe %s: status %d: %s", id, resp.StatusCode(), msg))
	}

	if recipe.ID == "" {
		recipe.ID = id
	}
	if err := c.cache.Set(ctx, &recipe); err != nil {
		common.LogWarn("Failed to cache recipe", zap.String("recipe_id", id), zap.Error(err))
	}

	return &recipe, nil
}

// CacheStats 快取統計
func (c *Client) CacheStats() map[string]interface{} {
	if c == nil {
		return map[string]interface{}{"enabled": false}
	}
	return c.cache.GetStats()
}
