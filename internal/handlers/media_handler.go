package handlers

import (
	"errors"
	"path"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pmarceau/trove/internal/authctx"
	"github.com/pmarceau/trove/internal/config"
	"github.com/pmarceau/trove/internal/dto"
	"github.com/pmarceau/trove/internal/media"
	"github.com/pmarceau/trove/internal/services"
)

// MediaHandler serves private media files. Missing, unauthorized and
// traversal-attempted requests are all answered with the same 404 so the
// endpoint leaks nothing about which IDs exist.
type MediaHandler struct {
	memories *services.MemoryService
	store    *media.Store
	cfg      *config.Config
}

func NewMediaHandler(memories *services.MemoryService, store *media.Store, cfg *config.Config) *MediaHandler {
	return &MediaHandler{memories: memories, store: store, cfg: cfg}
}

func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	memoryID, err1 := uuid.Parse(c.Params("id"))
	mediaID, err2 := uuid.Parse(c.Params("mediaID"))
	if err1 != nil || err2 != nil {
		return h.notFound(c)
	}

	mediaRow, err := h.memories.AuthorizeMedia(userID, authctx.IsAdmin(c), memoryID, mediaID)
	if err != nil {
		if errors.Is(err, services.ErrMediaNotFound) {
			return h.notFound(c)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	abs, err := h.store.ResolveSafePath(mediaRow.StoredPath)
	if err != nil || !h.store.Exists(mediaRow.StoredPath) {
		return h.notFound(c)
	}

	ctype := media.ContentType(abs)
	c.Set(fiber.HeaderCacheControl, "private, max-age=0, no-cache")

	// In production a reverse proxy streams the bytes; the app only
	// authorizes and points it at the file.
	if h.cfg.MediaServeMode == "accel" {
		c.Set(fiber.HeaderContentType, ctype)
		c.Set("X-Accel-Redirect", path.Join(h.cfg.AccelPrefix, mediaRow.StoredPath))
		return c.SendStatus(fiber.StatusOK)
	}

	c.Set(fiber.HeaderContentType, ctype)
	return c.SendFile(abs)
}

func (h *MediaHandler) notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: "Not found",
	})
}
