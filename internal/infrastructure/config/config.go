package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Shopping    ShoppingConfig  `mapstructure:"shopping"`
	Store       StoreConfig     `mapstructure:"store"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// ShoppingConfig 購物清單產生設定
type ShoppingConfig struct {
	DefaultFamilySize     int           `mapstructure:"default_family_size"`
	DefaultRecipeServings int           `mapstructure:"default_recipe_servings"`
	UrgencyWindow         time.Duration `mapstructure:"urgency_window"`
	TitleFormat           string        `mapstructure:"title_format"`
}

// StoreConfig 清單儲存設定
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// CatalogConfig 食譜目錄服務設定
type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	Workers int           `mapstructure:"workers"`
}

// CacheConfig 食譜快取配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// 儲存後端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// LoadConfig 載入設定（.env 由呼叫端以 godotenv 預先載入）
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"server.port":                      "PORT",
		"shopping.default_family_size":     "DEFAULT_FAMILY_SIZE",
		"shopping.default_recipe_servings": "DEFAULT_RECIPE_SERVINGS",
		"shopping.urgency_window":          "URGENCY_WINDOW",
		"store.backend":                    "STORE_BACKEND",
		"store.redis_addr":                 "REDIS_ADDR",
		"store.redis_password":             "REDIS_PASSWORD",
		"catalog.base_url":                 "CATALOG_BASE_URL",
		"catalog.api_key":                  "CATALOG_API_KEY",
		"catalog.workers":                  "CATALOG_WORKERS",
		"cache.enabled":                    "CACHE_ENABLED",
		"rate_limit.enabled":               "RATE_LIMIT_ENABLED",
		"rate_limit.requests":              "RATE_LIMIT_REQUESTS",
		"rate_limit.window":                "RATE_LIMIT_WINDOW",
		"dedup_window":                     "DEDUP_WINDOW",
		"log_level":                        "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// 設定檔（選用）
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "shopping-list-generator")
	v.SetDefault("log_level", "info")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// 購物清單設定
	v.SetDefault("shopping.default_family_size", 4)
	v.SetDefault("shopping.default_recipe_servings", 4)
	v.SetDefault("shopping.urgency_window", "48h")
	v.SetDefault("shopping.title_format", "Liste de courses - Semaine du {startDate}")

	// 儲存設定
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.ttl", "720h")

	// 食譜目錄設定
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.retries", 2)
	v.SetDefault("catalog.workers", 4)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid server max body bytes")
	}

	if config.Shopping.DefaultFamilySize <= 0 {
		return fmt.Errorf("invalid default family size")
	}
	if config.Shopping.DefaultRecipeServings <= 0 {
		return fmt.Errorf("invalid default recipe servings")
	}
	if config.Shopping.UrgencyWindow < 0 {
		return fmt.Errorf("invalid urgency window")
	}

	switch config.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if config.Store.RedisAddr == "" {
			return fmt.Errorf("redis address is required for redis store")
		}
	default:
		return fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}

	if config.Catalog.Workers <= 0 {
		return fmt.Errorf("invalid catalog workers")
	}
	if config.Catalog.Retries < 0 {
		return fmt.Errorf("invalid catalog retries")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit")
		}
	}

	return nil
}
