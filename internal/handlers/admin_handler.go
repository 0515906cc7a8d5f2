package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pmarceau/trove/internal/dto"
	"github.com/pmarceau/trove/internal/services"
)

// AdminHandler exposes manual triggers for the periodic sweeps, useful
// when operating the worker or after restoring a backup.
type AdminHandler struct {
	reaper   *services.ReaperService
	notifier *services.NotifierService
	profiles *services.ProfileService
}

func NewAdminHandler(reaper *services.ReaperService, notifier *services.NotifierService, profiles *services.ProfileService) *AdminHandler {
	return &AdminHandler{reaper: reaper, notifier: notifier, profiles: profiles}
}

func (h *AdminHandler) RunReaper(c *fiber.Ctx) error {
	if err := h.reaper.SweepOrphanedMedia(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "orphan sweep completed"})
}

func (h *AdminHandler) RunNotifier(c *fiber.Ctx) error {
	if err := h.notifier.DispatchUnlockNotifications(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "notifier sweep completed"})
}

func (h *AdminHandler) RunProfileBackfill(c *fiber.Ctx) error {
	if err := h.profiles.EnsureProfilesForAll(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "profile backfill completed"})
}
