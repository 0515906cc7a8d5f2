package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pmarceau/trove/internal/authctx"
	"github.com/pmarceau/trove/internal/dto"
	"github.com/pmarceau/trove/internal/models"
	"github.com/pmarceau/trove/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) GetPreferences(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	profile, err := h.profiles.GetProfile(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Profile not found",
		})
	}

	return c.JSON(preferencesResponse(profile))
}

func (h *ProfileHandler) UpdatePreferences(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	profile, err := h.profiles.UpdatePreferences(userID, services.PreferencesUpdate{
		LockTimeDays:     req.LockTimeDays,
		LockTimeEditable: req.LockTimeEditable,
		MailReminderDays: req.MailReminderDays,
		MailOnUnlock:     req.MailOnUnlock,
		MailNewsletter:   req.MailNewsletter,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidMailPolicy) || errors.Is(err, services.ErrNegativeDays) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Profile not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update preferences",
		})
	}

	return c.JSON(preferencesResponse(profile))
}

func preferencesResponse(profile *models.Profile) dto.PreferencesResponse {
	return dto.PreferencesResponse{
		LockTimeDays:        profile.LockTimeDays,
		LockTimeEditable:    profile.LockTimeEditable,
		MailReminderDays:    profile.MailReminderDays,
		MailOnUnlock:        profile.MailOnUnlock,
		MailNewsletter:      profile.MailNewsletter,
		PreferredLanguage:   profile.PreferredLanguage,
		LastMemoryWrittenAt: profile.LastMemoryWrittenAt,
	}
}
