package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Кадастровые кварталы Тверской области, по которым идёт последний fallback поиска
var defaultQuarters = []string{"69:18:0070104", "69:40:0100001", "69:10:0000001"}

type Config struct {
	Server  ServerConfig
	NSPD    NSPDConfig
	Breaker BreakerConfig
	Search  SearchConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// NSPDConfig - параметры подключения к геопорталу НСПД
type NSPDConfig struct {
	BaseURL           string
	RequestTimeout    int // seconds
	InsecureTLS       bool
	UserAgent         string
	LandPlotCategory  int
	StructureCategory int
}

type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

type SearchConfig struct {
	Quarters []string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	Enabled        bool
	SearchCacheTTL time.Duration
	ObjectCacheTTL time.Duration
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	// .env опционален: в контейнере всё приходит через окружение
	if _, err := os.Stat(".env"); err == nil {
		viper.SetConfigFile(".env")
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		NSPD: NSPDConfig{
			BaseURL:           viper.GetString("NSPD_BASE_URL"),
			RequestTimeout:    viper.GetInt("NSPD_REQUEST_TIMEOUT"),
			InsecureTLS:       viper.GetBool("NSPD_INSECURE_TLS"),
			UserAgent:         viper.GetString("NSPD_USER_AGENT"),
			LandPlotCategory:  viper.GetInt("NSPD_LAND_PLOT_CATEGORY"),
			StructureCategory: viper.GetInt("NSPD_STRUCTURE_CATEGORY"),
		},
		Breaker: BreakerConfig{
			MaxRequests:  uint32(viper.GetInt("BREAKER_MAX_REQUESTS")),
			Interval:     time.Duration(viper.GetInt("BREAKER_INTERVAL")) * time.Second,
			Timeout:      time.Duration(viper.GetInt("BREAKER_TIMEOUT")) * time.Second,
			MinRequests:  uint32(viper.GetInt("BREAKER_MIN_REQUESTS")),
			FailureRatio: viper.GetFloat64("BREAKER_FAILURE_RATIO"),
		},
		Search: SearchConfig{
			Quarters: parseList(viper.GetString("SEARCH_QUARTERS")),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			Enabled:        viper.GetBool("CACHE_ENABLED"),
			SearchCacheTTL: time.Duration(viper.GetInt("SEARCH_CACHE_TTL")) * time.Second,
			ObjectCacheTTL: time.Duration(viper.GetInt("OBJECT_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5001
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.NSPD.BaseURL == "" {
		c.NSPD.BaseURL = "https://nspd.gov.ru"
	}
	if c.NSPD.RequestTimeout == 0 {
		c.NSPD.RequestTimeout = 30
	}
	if c.NSPD.UserAgent == "" {
		c.NSPD.UserAgent = "cadastral-search/1.0"
	}
	if c.NSPD.LandPlotCategory == 0 {
		c.NSPD.LandPlotCategory = 36368
	}
	if c.NSPD.StructureCategory == 0 {
		c.NSPD.StructureCategory = 36369
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 3
	}
	if c.Breaker.Interval == 0 {
		c.Breaker.Interval = time.Minute
	}
	if c.Breaker.Timeout == 0 {
		c.Breaker.Timeout = 2 * time.Minute
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 10
	}
	if c.Breaker.FailureRatio == 0 {
		c.Breaker.FailureRatio = 0.6
	}
	if len(c.Search.Quarters) == 0 {
		c.Search.Quarters = append([]string(nil), defaultQuarters...)
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Cache.SearchCacheTTL == 0 {
		c.Cache.SearchCacheTTL = 10 * time.Minute
	}
	if c.Cache.ObjectCacheTTL == 0 {
		c.Cache.ObjectCacheTTL = time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
