// Package server contains the HTTP and WebSocket handlers of the purchasing API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "stockflow/docs" // swagger docs
	"stockflow/internal/cache"
	"stockflow/internal/config"
	"stockflow/internal/database"
	"stockflow/internal/middleware"
	"stockflow/internal/models"
	"stockflow/internal/notifications"
	"stockflow/internal/repository"
	"stockflow/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "stockflow-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	shutdownCtx     context.Context
	shutdownFn      context.CancelFunc
	notifier        *notifications.Notifier
	identity        *service.IdentityService
	purchaseService *service.PurchaseRequestService
}

// NewServer connects to the database and Redis and builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: caching, rate limiting and realtime events are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	notifier := notifications.NewNotifier(redisClient)
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		notifier:       notifier,
		identity:       service.NewIdentityService(repository.NewUserRepository(db, redisClient)),
	}
	s.purchaseService = service.NewPurchaseRequestService(
		repository.NewUnitOfWork(db),
		repository.NewStores(db),
		notifier,
	)
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        200,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Stockflow Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Each protected group has its own prefix so auth runs once per request.
	protected := func(prefix string) fiber.Router {
		return api.Group(prefix, s.AuthRequired(), s.TenantRequired())
	}

	requests := protected("/purchase-requests")
	requests.Post("/", middleware.RateLimit(
		s.redis, 20, time.Minute, "create_purchase_request"), s.CreatePurchaseRequest)
	requests.Get("/me", s.GetMyPurchaseRequests)
	requests.Get("/pending", s.AdminRequired(), s.GetPendingPurchaseRequests)
	requests.Get("/approved", s.AdminRequired(), s.GetApprovedPurchaseRequests)

	transition := middleware.RateLimit(s.redis, 60, time.Minute, "purchase_request_transition")
	requests.Put("/:id/approve", s.AdminRequired(), transition, s.ApprovePurchaseRequest)
	requests.Put("/:id/reject", s.AdminRequired(), transition, s.RejectPurchaseRequest)
	requests.Put("/:id/receive", s.AdminRequired(), transition, s.ReceivePurchaseRequest)

	protected("/inventory").Get("/items", s.GetInventoryItems)
	protected("/stock-movements").Get("/", s.AdminRequired(), s.GetStockMovements)

	ws := api.Group("/ws")
	ws.Post("/ticket", s.AuthRequired(), s.TenantRequired(), s.IssueWSTicket)
	ws.Get("/events", s.TicketRequired(), s.TenantRequired(), requireWebSocketUpgrade, s.WebSocketEventsHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is required for readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Stockflow API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops every websocket event subscription.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

// baseContext is the parent of long-lived connection contexts.
func (s *Server) baseContext() context.Context {
	if s.shutdownCtx != nil {
		return s.shutdownCtx
	}
	return context.Background()
}
