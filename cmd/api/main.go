package main

// @title Cadastral Search API
// @version 1.0.0
// @description Сервис поиска земельных участков и объектов капитального строительства в контуре, нарисованном на карте. Данные берутся с геопортала НСПД.
// @description
// @description Основные возможности:
// @description - Поиск объектов в полигоне с каскадом резервных стратегий
// @description - Получение объекта по кадастровому номеру

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5001
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/cadastral-search/docs"
	"github.com/cadastral-search/internal/config"
	httpDelivery "github.com/cadastral-search/internal/delivery/http"
	"github.com/cadastral-search/internal/delivery/http/handler"
	"github.com/cadastral-search/internal/domain/repository"
	"github.com/cadastral-search/internal/infrastructure/nspd"
	"github.com/cadastral-search/internal/pkg/logger"
	"github.com/cadastral-search/internal/repository/cache"
	"github.com/cadastral-search/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Cadastral Search")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("nspd", cfg.NSPD.BaseURL),
		zap.Strings("quarters", cfg.Search.Quarters),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	// 3. Optional Redis cache
	var (
		cacheRepo   repository.CacheRepository
		cacheHealth httpDelivery.HealthChecker
		redisClient *cache.Redis
	)
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			// без кеша сервис работает, просто каждый запрос идёт в НСПД
			log.Warn("Redis unavailable, cache disabled", zap.Error(err))
		} else {
			cacheRepo = cache.NewCacheRepository(redisClient)
			cacheHealth = redisClient
			log.Info("Redis connected", zap.String("addr", cfg.GetRedisAddr()))
		}
	}

	// 4. NSPD sessions
	sessions := nspd.NewFactory(&cfg.NSPD, &cfg.Breaker, log)

	// 5. Initialize Use Cases
	chain := usecase.NewSearchChain(cfg.Search.Quarters)

	contourUC := usecase.NewContourSearchUseCase(
		sessions,
		chain,
		cacheRepo,
		log,
		cfg.Cache.SearchCacheTTL,
	)

	objectUC := usecase.NewCadastralObjectUseCase(
		sessions,
		cacheRepo,
		log,
		cfg.Cache.ObjectCacheTTL,
	)

	log.Info("Use cases initialized")

	// 6. Initialize HTTP Handlers and Server
	cadastralHandler := handler.NewCadastralHandler(contourUC, objectUC, log)
	server := httpDelivery.NewServer(cfg, log, cadastralHandler, cacheHealth)

	// 7. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}

	log.Info("Server stopped successfully")
}
