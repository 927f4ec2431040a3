package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/cache"
	"github.com/straye-as/erp-desk/internal/config"
	"github.com/straye-as/erp-desk/internal/database"
	"github.com/straye-as/erp-desk/internal/http/handler"
	"github.com/straye-as/erp-desk/internal/http/middleware"
	"github.com/straye-as/erp-desk/internal/http/router"
	"github.com/straye-as/erp-desk/internal/jobs"
	"github.com/straye-as/erp-desk/internal/logger"
	"github.com/straye-as/erp-desk/internal/metrics"
	"github.com/straye-as/erp-desk/internal/normalize"
	"github.com/straye-as/erp-desk/internal/repository"
	"github.com/straye-as/erp-desk/internal/service"
	"github.com/straye-as/erp-desk/internal/upstream"
	"go.uber.org/zap"
)

// @title ERP Desk API
// @version 1.0
// @description Back office API over the ERP for inquiries, purchase orders and the HR user directory
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
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
		zap.String("erp_base_url", cfg.Upstream.BaseURL),
	)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("Draft store migrated", zap.String("driver", cfg.Database.Driver))
	}

	store, err := cache.New(&cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Ping(context.Background()); err != nil {
		// Snapshots fall back to the ERP on cache errors
		log.Warn("Snapshot cache unreachable at startup", zap.Error(err))
	}

	// A nil recorder and observer keep the services free of metrics
	var (
		m        *metrics.Metrics
		recorder service.Recorder
		opts     []upstream.Option
	)
	if cfg.Metrics.Enabled {
		m = metrics.Registry(cfg.Metrics.Namespace)
		recorder = m
		opts = append(opts, upstream.WithObserver(m))
	}

	client := upstream.NewClient(&cfg.Upstream, log, opts...)
	normalizer := normalize.Default
	collections := service.NewCollections(
		client, store, cache.Keys{Prefix: cfg.Cache.KeyPrefix}, cfg.Cache.TTLDuration(), normalizer, recorder, log,
	)

	// Services
	inquiryService := service.NewInquiryService(client, collections, normalizer, normalize.Detail, log)
	purchaseOrderService := service.NewPurchaseOrderService(client, collections, normalizer, log)
	userService := service.NewUserService(client, collections, normalizer, log)
	dashboardService := service.NewDashboardService(collections, log)
	draftService := service.NewDraftService(
		repository.NewDraftRepository(db), client, collections, normalizer,
		inquiryService, purchaseOrderService, cfg.Drafts.MaxAgeDuration(), recorder, log,
	)

	// Middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, authMiddleware, rateLimiter, m, router.Handlers{
		Health:        handler.NewHealthHandler(db, store, client, log),
		Inquiry:       handler.NewInquiryHandler(inquiryService, log),
		PurchaseOrder: handler.NewPurchaseOrderHandler(purchaseOrderService, log),
		User:          handler.NewUserHandler(userService, log),
		Dashboard:     handler.NewDashboardHandler(dashboardService, log),
		Draft:         handler.NewDraftHandler(draftService, log),
	})

	// Background jobs
	scheduler := jobs.NewScheduler(log)
	pruneJob := jobs.NewPruneDraftsJob(draftService, log)
	if err := pruneJob.Apply(scheduler, cfg.Drafts.PruneEnabled, cfg.Drafts.PruneCron); err != nil {
		log.Error("Failed to register draft pruning job", zap.Error(err))
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	// SIGHUP reloads the job schedule from config
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)

	for {
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-reload:
			next, err := config.Load()
			if err != nil {
				log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			if err := pruneJob.Apply(scheduler, next.Drafts.PruneEnabled, next.Drafts.PruneCron); err != nil {
				log.Error("Failed to reschedule draft pruning job", zap.Error(err))
				continue
			}
			log.Info("Job schedule reloaded", zap.Strings("jobs", scheduler.JobNames()))
		case sig := <-shutdown:
			log.Info("Shutdown signal received", zap.String("signal", sig.String()))

			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown gracefully", zap.Error(err))
				return err
			}

			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			log.Info("Server stopped gracefully")
			return nil
		}
	}
}
