package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eduvisory/consulting-platform/internal/api/handler"
	"github.com/eduvisory/consulting-platform/internal/api/middleware"
	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
	"github.com/eduvisory/consulting-platform/internal/core/service"
	"github.com/eduvisory/consulting-platform/internal/infrastructure/config"
	mongodb "github.com/eduvisory/consulting-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/eduvisory/consulting-platform/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The recorder feeds the async audit pipeline; pass queue.Dispatcher in
// production.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, recorder ports.ActivityRecorder, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("consulting"))

	// --- Dependencies ---
	registry := domain.NewRegistry(cfg.AdminThreadModeration)

	accountRepo := mongodb.NewAccountRepository(db)
	threadRepo := mongodb.NewThreadRepository(db)
	leadRepo := mongodb.NewLeadRepository(db)
	denylist := redisdb.NewDenylist(rdb)

	accountService := service.NewAccountService(accountRepo, registry, log)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, denylist, log)
	threadService := service.NewThreadService(threadRepo, accountRepo, registry, recorder, log)
	leadService := service.NewLeadService(leadRepo, registry, recorder, log)

	authHandler := handler.NewAuthHandler(accountService, tokenService, recorder)
	accountHandler := handler.NewAccountHandler(accountService)
	threadHandler := handler.NewThreadHandler(threadService)
	leadHandler := handler.NewLeadHandler(leadService)

	auth := middleware.Auth(tokenService)
	optionalAuth := middleware.OptionalAuth(tokenService)
	strict := cfg.Development()
	require := func(cap domain.Capability) echo.MiddlewareFunc {
		return middleware.Require(registry, cap, strict)
	}

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, auth)

	// --- Accounts ---
	e.POST("/accounts", accountHandler.Register, optionalAuth)
	e.POST("/accounts/:id/password", accountHandler.RotatePassword, auth)

	// --- Threads ---
	threads := e.Group("/threads", auth)
	threads.POST("", threadHandler.Open, require(domain.CapThreadWrite))
	threads.GET("", threadHandler.List, require(domain.CapThreadRead))
	threads.GET("/:id/messages", threadHandler.Messages, require(domain.CapThreadRead))
	threads.POST("/:id/messages", threadHandler.Append, require(domain.CapThreadWrite))

	// --- Leads ---
	leads := e.Group("/leads", auth)
	leads.GET("", leadHandler.List, require(domain.CapLeadRead))
	leads.POST("", leadHandler.Create, require(domain.CapLeadWrite))
	leads.GET("/:id", leadHandler.Get, require(domain.CapLeadRead))
	leads.PATCH("/:id", leadHandler.Patch, require(domain.CapLeadWrite))

	// --- Observability (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)             // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness)   // readiness – are dependencies up?

	return e
}
