package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prflow/approval-api/internal/auth"
	"github.com/prflow/approval-api/internal/config"
	"github.com/prflow/approval-api/internal/database"
	"github.com/prflow/approval-api/internal/http/handler"
	"github.com/prflow/approval-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/prflow/approval-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	authHandler      *handler.AuthHandler
	accountHandler   *handler.AccountHandler
	requestHandler   *handler.RequestHandler
	lifecycleHandler *handler.RequestLifecycleHandler
	documentHandler  *handler.DocumentHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
	requestHandler *handler.RequestHandler,
	lifecycleHandler *handler.RequestLifecycleHandler,
	documentHandler *handler.DocumentHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		authHandler:      authHandler,
		accountHandler:   accountHandler,
		requestHandler:   requestHandler,
		lifecycleHandler: lifecycleHandler,
		documentHandler:  documentHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.Put("/auth/password", rt.authHandler.UpdatePassword)

			// Purchase requests
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", rt.requestHandler.List)
				r.Post("/", rt.requestHandler.Create)
				r.Get("/export", rt.requestHandler.Export)
				r.Get("/{id}", rt.requestHandler.GetByID)
				r.Put("/{id}/items", rt.requestHandler.UpdateItems)
				r.Delete("/{id}", rt.requestHandler.Delete)

				// Lifecycle endpoints
				r.Post("/{id}/approve", rt.lifecycleHandler.Approve)
				r.Post("/{id}/reject", rt.lifecycleHandler.Reject)
				r.Post("/{id}/cancel", rt.lifecycleHandler.Cancel)
				r.Post("/{id}/order", rt.lifecycleHandler.MarkOrdered)
				r.Post("/{id}/complete", rt.lifecycleHandler.Complete)

				// Documents
				r.Post("/{id}/documents/{slot}", rt.documentHandler.Upload)
				r.Get("/{id}/documents/{slot}", rt.documentHandler.Download)
			})

			// Account management (admin only)
			r.Route("/accounts", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				r.Get("/", rt.accountHandler.List)
				r.Post("/", rt.accountHandler.Create)
				r.Put("/{id}", rt.accountHandler.Update)
				r.Put("/{id}/password", rt.accountHandler.ResetPassword)
			})
		})
	})

	return r
}
