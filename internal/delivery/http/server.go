package http

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/cadastral-search/internal/config"
	"github.com/cadastral-search/internal/delivery/http/handler"
	"github.com/cadastral-search/internal/delivery/http/middleware"
	"github.com/cadastral-search/internal/pkg/metrics"
	"github.com/cadastral-search/internal/pkg/utils"
)

// HealthChecker - зависимость, состояние которой попадает в /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	cadastralHandler *handler.CadastralHandler
	cache            HealthChecker
}

// NewServer - создание нового HTTP сервера. cache может быть nil.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	cadastralHandler *handler.CadastralHandler,
	cache HealthChecker,
) *Server {
	// каскад fallback-поисков к НСПД может идти долго, поэтому WriteTimeout с запасом
	app := fiber.New(fiber.Config{
		AppName:      "Cadastral Search",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    8 * 1024 * 1024,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:              app,
		config:           cfg,
		logger:           logger,
		cadastralHandler: cadastralHandler,
		cache:            cache,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - для тестов через app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(metrics.Middleware())
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// Prometheus
	s.app.Get("/metrics", metrics.Handler())

	// Health check
	s.app.Get("/api/v1/health", s.health)

	api := s.app.Group("/api")
	api.Get("/map-data", s.cadastralHandler.MapData)
	api.Get("/cadastral", s.cadastralHandler.GetObject)
	api.Post("/cadastral/search_in_contour", s.cadastralHandler.SearchInContour)
}

func (s *Server) health(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status": "healthy",
		"time":   time.Now(),
	}

	if s.cache != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := s.cache.Health(ctx); err != nil {
			// кеш необязателен: сервис работает и без него
			resp["status"] = "degraded"
			resp["cache"] = err.Error()
		} else {
			resp["cache"] = "ok"
		}
	}

	return c.JSON(resp)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки, не обработанные в хендлерах (404 маршрута, 405 и т.п.)
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(utils.ErrorResponse{
			Error: err.Error(),
		})
	}
}
