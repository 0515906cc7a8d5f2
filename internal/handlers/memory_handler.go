package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pmarceau/trove/internal/authctx"
	"github.com/pmarceau/trove/internal/config"
	"github.com/pmarceau/trove/internal/dto"
	"github.com/pmarceau/trove/internal/services"
)

type MemoryHandler struct {
	memories *services.MemoryService
	cfg      *config.Config
}

func NewMemoryHandler(memories *services.MemoryService, cfg *config.Config) *MemoryHandler {
	return &MemoryHandler{memories: memories, cfg: cfg}
}

// Create handles the multipart authoring form: title, content, mood,
// lock_time_days and any number of files.
func (h *MemoryHandler) Create(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Expected multipart form data",
		})
	}

	fields := make(map[string]string)
	mood, err := strconv.Atoi(formValue(form, "mood"))
	if err != nil {
		fields["mood"] = "pick a valid mood"
	}
	lockTime := 0
	if raw := formValue(form, "lock_time_days"); raw != "" {
		lockTime, err = strconv.Atoi(raw)
		if err != nil {
			fields["lock_time_days"] = "lock time must be a whole number of days"
		}
	}
	if len(fields) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Validation failed", Fields: fields,
		})
	}

	req := services.CreateMemoryRequest{
		Title:        formValue(form, "title"),
		Content:      formValue(form, "content"),
		Mood:         mood,
		LockTimeDays: lockTime,
		Files:        uploadsFromForm(form.File["files"]),
	}

	memory, err := h.memories.CreateMemory(userID, req, h.cfg.MaxUploadBytes)
	if err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Validation failed", Fields: validation.Fields,
			})
		}
		if errors.Is(err, services.ErrUploadTooBig) {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create memory",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(memory)
}

func (h *MemoryHandler) List(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	summaries, err := h.memories.ListMemories(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list memories",
		})
	}

	return c.JSON(fiber.Map{"memories": summaries, "total": len(summaries)})
}

func (h *MemoryHandler) Get(c *fiber.Ctx) error {
	userID, err := authctx.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	memoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Memory not found",
		})
	}

	detail, err := h.memories.GetMemory(userID, authctx.IsAdmin(c), memoryID)
	switch {
	case err == nil:
		return c.JSON(detail)
	case errors.Is(err, services.ErrMemoryLocked):
		// Locked entries reveal their metadata and unlock instant, never
		// their content.
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":     true,
			"message":   "Memory is still locked",
			"memory":    detail,
			"unlock_at": detail.UnlockAt,
		})
	case errors.Is(err, services.ErrMemoryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Memory not found",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch memory",
		})
	}
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func uploadsFromForm(headers []*multipart.FileHeader) []services.Upload {
	uploads := make([]services.Upload, 0, len(headers))
	for _, header := range headers {
		header := header
		uploads = append(uploads, services.Upload{
			Filename: header.Filename,
			Size:     header.Size,
			Open: func() (io.ReadCloser, error) {
				return header.Open()
			},
		})
	}
	return uploads
}
