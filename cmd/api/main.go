package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prflow/approval-api/docs"
	"github.com/prflow/approval-api/internal/auth"
	"github.com/prflow/approval-api/internal/config"
	"github.com/prflow/approval-api/internal/database"
	"github.com/prflow/approval-api/internal/http/handler"
	"github.com/prflow/approval-api/internal/http/middleware"
	"github.com/prflow/approval-api/internal/http/router"
	"github.com/prflow/approval-api/internal/jobs"
	"github.com/prflow/approval-api/internal/logger"
	"github.com/prflow/approval-api/internal/notify"
	"github.com/prflow/approval-api/internal/repository"
	"github.com/prflow/approval-api/internal/service"
	"github.com/prflow/approval-api/internal/signing"
	"github.com/prflow/approval-api/internal/storage"
	"go.uber.org/zap"
)

// @title Purchase Request Approval API
// @version 1.0
// @description API for submitting purchase requests and moving them through the approval workflow

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage
	documentStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	notificationLogRepo := repository.NewNotificationLogRepository(db)

	// Notification sink: webhook in real deployments, log sink otherwise
	var sink notify.Sink
	switch cfg.Notify.Mode {
	case "webhook":
		if cfg.Notify.WebhookURL == "" {
			return fmt.Errorf("notify webhook URL required in webhook mode")
		}
		sink = notify.NewWebhookSink(cfg.Notify.WebhookURL, cfg.Notify.TimeoutDuration())
	default:
		sink = notify.NewLogSink(log)
	}
	dispatcher := notify.NewDispatcher(sink, accountRepo, notificationLogRepo, log, cfg.Notify.TimeoutDuration(), cfg.Notify.FromName)
	log.Info("Notifications initialized", zap.String("mode", cfg.Notify.Mode))

	// Signature renderer
	var renderer signing.Renderer
	if cfg.Signing.Enabled {
		if cfg.Signing.RenderURL == "" {
			return fmt.Errorf("signing render URL required when signing is enabled")
		}
		renderer = signing.NewHTTPRenderer(cfg.Signing.RenderURL, cfg.Signing.TimeoutDuration())
		log.Info("Signature renderer initialized", zap.String("url", cfg.Signing.RenderURL))
	} else {
		renderer = signing.NewDisabledRenderer()
	}

	// Initialize services
	tokenIssuer := auth.NewTokenIssuer(&cfg.Auth)
	numberService := service.NewRequestNumberService(numberSequenceRepo)
	accountService := service.NewAccountService(accountRepo, tokenIssuer, log)
	requestService := service.NewRequestService(requestRepo, numberService, dispatcher, log)
	lifecycleService := service.NewRequestLifecycleService(requestRepo, documentStorage, renderer, dispatcher, log)
	documentService := service.NewDocumentService(requestRepo, documentStorage, log)
	exportService := service.NewExportService(requestRepo, log)

	// Seed an admin account on a fresh database
	if err := accountService.EnsureDefaultAdmin(ctx, "admin", "change-me-now"); err != nil {
		return fmt.Errorf("failed to ensure admin account: %w", err)
	}

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(tokenIssuer, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(accountService, log)
	accountHandler := handler.NewAccountHandler(accountService, log)
	requestHandler := handler.NewRequestHandler(requestService, exportService, log)
	lifecycleHandler := handler.NewRequestLifecycleHandler(lifecycleService, log)
	documentHandler := handler.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSizeMB, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		accountHandler,
		requestHandler,
		lifecycleHandler,
		documentHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.PendingReminderEnabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterPendingReminderJob(
			scheduler,
			requestRepo,
			dispatcher,
			log,
			cfg.Jobs.PendingReminderSchedule,
			cfg.Jobs.PendingReminderAfterDays,
		); err != nil {
			log.Error("Failed to register pending reminder job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with pending reminder job",
				zap.String("cron_expr", cfg.Jobs.PendingReminderSchedule),
				zap.Int("after_days", cfg.Jobs.PendingReminderAfterDays),
			)
		}
	}

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

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
