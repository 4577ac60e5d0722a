package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/config"
	"github.com/medisupply/devis-api/internal/database"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/erp"
	"github.com/medisupply/devis-api/internal/http/handler"
	"github.com/medisupply/devis-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/medisupply/devis-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	erpClient       *erp.Client
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	auditMiddleware *middleware.AuditMiddleware
	quoteHandler    *handler.QuoteHandler
	clientHandler   *handler.ClientHandler
	productHandler  *handler.ProductHandler
	userHandler     *handler.UserHandler
	exportHandler   *handler.ExportHandler
	auditHandler    *handler.AuditHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	erpClient *erp.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	quoteHandler *handler.QuoteHandler,
	clientHandler *handler.ClientHandler,
	productHandler *handler.ProductHandler,
	userHandler *handler.UserHandler,
	exportHandler *handler.ExportHandler,
	auditHandler *handler.AuditHandler,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		erpClient:       erpClient,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		auditMiddleware: auditMiddleware,
		quoteHandler:    quoteHandler,
		clientHandler:   clientHandler,
		productHandler:  productHandler,
		userHandler:     userHandler,
		exportHandler:   exportHandler,
		auditHandler:    auditHandler,
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

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
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

		// Check ERP connection when configured. ERP being down does not make
		// the API unready; quotes work without the cost feed.
		if rt.erpClient != nil {
			checks["erp"] = rt.erpClient.HealthCheck(r.Context())
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
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.auditMiddleware.Audit) // Audit all modifications

			// Clients
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", rt.clientHandler.List)
				r.Get("/{id}", rt.clientHandler.GetByID)
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireWriter)
					r.Post("/", rt.clientHandler.Create)
					r.Put("/{id}", rt.clientHandler.Update)
					r.Delete("/{id}", rt.clientHandler.Delete)
				})
			})

			// Products
			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.productHandler.List)
				r.Get("/search", rt.productHandler.Search)
				r.Get("/categories", rt.productHandler.ListCategories)
				r.Get("/{id}", rt.productHandler.GetByID)
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireWriter)
					r.Post("/", rt.productHandler.Create)
					r.Put("/{id}", rt.productHandler.Update)
					r.Delete("/{id}", rt.productHandler.Delete)
				})
			})

			// Quotes
			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", rt.quoteHandler.List)
				r.Get("/{id}", rt.quoteHandler.GetByID)
				r.Get("/{id}/transitions", rt.quoteHandler.AllowedTransitions)
				r.Get("/{id}/history", rt.quoteHandler.History)
				r.Get("/{id}/export", rt.exportHandler.Snapshot)
				r.Get("/{id}/exports", rt.exportHandler.ListByQuote)
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireWriter)
					r.Post("/", rt.quoteHandler.Create)
					r.Put("/{id}", rt.quoteHandler.Update)
					r.Delete("/{id}", rt.quoteHandler.Delete)
					r.Post("/{id}/duplicate", rt.quoteHandler.Duplicate)
					r.Post("/{id}/transition", rt.quoteHandler.Transition)
					r.Post("/{id}/exports", rt.exportHandler.ExportCSV)
				})
			})

			// Exports
			r.Get("/exports/{id}/download", rt.exportHandler.Download)

			// Users (admin only)
			r.Route("/users", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleAdmin))
				r.Get("/", rt.userHandler.List)
				r.Post("/", rt.userHandler.Create)
				r.Get("/{id}", rt.userHandler.GetByID)
				r.Put("/{id}", rt.userHandler.Update)
				r.Delete("/{id}", rt.userHandler.Deactivate)
			})

			// Audit logs (admin only)
			r.Route("/audit", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.RoleAdmin))
				r.Get("/", rt.auditHandler.List)
				r.Get("/stats", rt.auditHandler.GetStats)
				r.Get("/entity/{entityType}/{entityId}", rt.auditHandler.GetByEntity)
			})
		})
	})

	return r
}
