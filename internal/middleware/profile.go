package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/pmarceau/trove/internal/authctx"
	"github.com/pmarceau/trove/internal/services"
)

// EnsureProfile reconciles the authenticated user's profile before the
// handler runs, so downstream code can assume the row exists. A failure
// is logged but does not block the request; handlers still treat a
// missing profile as an error case.
func EnsureProfile(profiles *services.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := authctx.GetUserID(c)
		if err == nil {
			if err := profiles.EnsureProfile(userID); err != nil {
				slog.Error("profile reconcile failed", "user_id", userID, "error", err)
			}
		}
		return c.Next()
	}
}
