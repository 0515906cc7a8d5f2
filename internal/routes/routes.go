package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/pmarceau/trove/internal/config"
	"github.com/pmarceau/trove/internal/handlers"
	"github.com/pmarceau/trove/internal/middleware"
	"github.com/pmarceau/trove/internal/services"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	profiles *services.ProfileService,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	profileHandler *handlers.ProfileHandler,
	memoryHandler *handlers.MemoryHandler,
	mediaHandler *handlers.MediaHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Public auth endpoints get a stricter rate limit
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Authenticated surface: the profile reconciler runs in front of
	// every handler here so they can assume the profile row exists.
	protected := api.Group("", middleware.JWTProtected(cfg), middleware.EnsureProfile(profiles))

	protected.Get("/profile/preferences", profileHandler.GetPreferences)
	protected.Put("/profile/preferences", profileHandler.UpdatePreferences)

	protected.Post("/memories", memoryHandler.Create)
	protected.Get("/memories", memoryHandler.List)
	protected.Get("/memories/:id", memoryHandler.Get)
	protected.Get("/memories/:id/media/:mediaID", mediaHandler.Serve)

	// Admin sweep triggers
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/sweeps/reaper", adminHandler.RunReaper)
	admin.Post("/sweeps/notifier", adminHandler.RunNotifier)
	admin.Post("/sweeps/profiles", adminHandler.RunProfileBackfill)
}
