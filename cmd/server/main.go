package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pmarceau/trove/internal/config"
	"github.com/pmarceau/trove/internal/database"
	"github.com/pmarceau/trove/internal/handlers"
	"github.com/pmarceau/trove/internal/logging"
	"github.com/pmarceau/trove/internal/mail"
	"github.com/pmarceau/trove/internal/media"
	"github.com/pmarceau/trove/internal/middleware"
	"github.com/pmarceau/trove/internal/routes"
	"github.com/pmarceau/trove/internal/scheduler"
	"github.com/pmarceau/trove/internal/services"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Private media store
	store, err := media.NewStore(cfg.PrivateMediaRoot)
	if err != nil {
		slog.Error("media store init failed", "root", cfg.PrivateMediaRoot, "error", err)
		os.Exit(1)
	}

	// Mail dispatch pool
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	mailPool := mail.NewPool(mail.NewSMTPDispatcher(cfg), cfg.MailWorkers, cfg.MailQueueCapacity)
	mailPool.Start(ctx)

	// Services
	profileService := services.NewProfileService(database.DB)
	authService := services.NewAuthService(database.DB, cfg, profileService)
	memoryService := services.NewMemoryService(database.DB, store, profileService)
	reaperService := services.NewReaperService(database.DB, store, cfg.OrphanGrace)
	notifierService := services.NewNotifierService(database.DB, store, profileService, mailPool)

	// Background scheduler; the process-role marker keeps a second
	// supervised instance from running a duplicate loop.
	if cfg.RunScheduler() {
		sched := scheduler.New(
			scheduler.Task{Name: "orphan_reaper", Interval: cfg.ReaperInterval, Run: reaperService.SweepOrphanedMedia},
			scheduler.Task{Name: "unlock_notifier", Interval: cfg.NotifierInterval, Run: notifierService.DispatchUnlockNotifications},
			scheduler.Task{Name: "profile_backfill", Interval: cfg.ProfileInterval, Run: profileService.EnsureProfilesForAll},
		)
		sched.Start(ctx)
	} else {
		slog.Info("scheduler disabled for this process role", "role", cfg.ProcessRole)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler()
	profileHandler := handlers.NewProfileHandler(profileService)
	memoryHandler := handlers.NewMemoryHandler(memoryService, cfg)
	mediaHandler := handlers.NewMediaHandler(memoryService, store, cfg)
	adminHandler := handlers.NewAdminHandler(reaperService, notifierService, profileService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, profileService,
		authHandler, healthHandler, profileHandler, memoryHandler, mediaHandler, adminHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "role", cfg.ProcessRole)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	stop()
	mailPool.Stop()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
