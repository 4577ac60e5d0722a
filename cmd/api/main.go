package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medisupply/devis-api/docs"
	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/config"
	"github.com/medisupply/devis-api/internal/database"
	"github.com/medisupply/devis-api/internal/erp"
	"github.com/medisupply/devis-api/internal/http/handler"
	"github.com/medisupply/devis-api/internal/http/middleware"
	"github.com/medisupply/devis-api/internal/http/router"
	"github.com/medisupply/devis-api/internal/jobs"
	"github.com/medisupply/devis-api/internal/logger"
	"github.com/medisupply/devis-api/internal/repository"
	"github.com/medisupply/devis-api/internal/service"
	"github.com/medisupply/devis-api/internal/storage"
	"go.uber.org/zap"
)

// @title MediSupply Devis API
// @version 1.0
// @description Quote management API for pharmacy and medical supply sales: clients, product catalog, quote pricing and lifecycle
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@medisupply.fr

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "devis-api-staging.medisupply.fr"
	case "production":
		docs.SwaggerInfo.Host = "devis-api.medisupply.fr"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize export storage
	exportStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize ERP connection (optional - for the purchase cost feed)
	// The connection is read-only and the app continues without it
	var erpClient *erp.Client
	if cfg.Erp.Enabled {
		erpClient, err = erp.NewClient(&cfg.Erp, log)
		if err != nil {
			log.Warn("ERP connection failed, continuing without cost feed",
				zap.Error(err),
			)
		}
	} else {
		log.Info("ERP feed not configured, skipping")
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	historyRepo := repository.NewQuoteStatusHistoryRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	snapshotRepo := repository.NewExportSnapshotRepository(db)

	// Initialize services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)
	quoteService := service.NewQuoteService(quoteRepo, clientRepo, productRepo, historyRepo, numberSequenceService, cfg.Quote.ValidityDays, log)
	clientService := service.NewClientService(clientRepo, log)
	productService := service.NewProductService(productRepo, log)
	userService := service.NewUserService(userRepo, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)
	exportService := service.NewExportService(quoteRepo, snapshotRepo, exportStorage, log)
	erpSyncService := service.NewErpSyncService(erpClient, productRepo, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(auditLogService, nil, log)

	// Initialize handlers
	quoteHandler := handler.NewQuoteHandler(quoteService, log)
	clientHandler := handler.NewClientHandler(clientService, log)
	productHandler := handler.NewProductHandler(productService, log)
	userHandler := handler.NewUserHandler(userService, log)
	exportHandler := handler.NewExportHandler(exportService, log)
	auditHandler := handler.NewAuditHandler(auditLogService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		erpClient,
		authMiddleware,
		rateLimiter,
		auditMiddleware,
		quoteHandler,
		clientHandler,
		productHandler,
		userHandler,
		exportHandler,
		auditHandler,
	)

	// Initialize and start scheduler for background jobs
	scheduler := jobs.NewScheduler(log)

	if erpClient != nil {
		if err := jobs.RegisterErpSyncJob(
			scheduler,
			erpSyncService,
			log,
			cfg.Jobs.ErpSyncSchedule,
			true, // run a cost sync immediately on startup
		); err != nil {
			log.Error("Failed to register ERP sync job", zap.Error(err))
		}
	}

	if err := jobs.RegisterAuditRetentionJob(
		scheduler,
		auditLogService,
		cfg.Jobs.AuditRetention(),
		log,
		cfg.Jobs.AuditPurgeSchedule,
	); err != nil {
		log.Error("Failed to register audit retention job", zap.Error(err))
	}

	scheduler.Start()
	log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler; running jobs complete first
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		log.Info("Scheduler stopped")

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close ERP connection if initialized
		if erpClient != nil {
			if err := erpClient.Close(); err != nil {
				log.Warn("Error closing ERP connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
