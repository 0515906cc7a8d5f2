package services

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pmarceau/trove/internal/media"
	"github.com/pmarceau/trove/internal/models"
	"github.com/pmarceau/trove/internal/timelock"
	"gorm.io/gorm"
)

var (
	ErrMemoryNotFound = errors.New("memory not found")
	// ErrMediaNotFound covers every media-gate failure: unknown memory,
	// media attached to a different memory, non-owner requester, missing
	// file, traversal attempt. Callers must not distinguish them.
	ErrMediaNotFound = errors.New("media not found")
	ErrMemoryLocked  = errors.New("memory is still locked")
	ErrUploadTooBig  = errors.New("uploaded files exceed the size limit")
)

// mediaInsertionOrder sorts media rows by attach order. The id
// tiebreaker keeps rows written in the same burst, with equal
// timestamps, in a stable order.
const mediaInsertionOrder = "created_at ASC, id ASC"

// ValidationError reports per-field authoring problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// MemoryService owns memory authoring, read gating and the media access
// gate.
type MemoryService struct {
	db       *gorm.DB
	store    *media.Store
	profiles *ProfileService
	now      func() time.Time
}

func NewMemoryService(db *gorm.DB, store *media.Store, profiles *ProfileService) *MemoryService {
	return &MemoryService{db: db, store: store, profiles: profiles, now: time.Now}
}

// Upload is one file of a create request.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type CreateMemoryRequest struct {
	Title        string
	Content      string
	Mood         int
	LockTimeDays int
	Files        []Upload
}

// CreateMemory validates and persists a new diary entry with its media.
// When the owner's profile forbids lock-time edits the requested value is
// ignored and the profile default applies.
func (s *MemoryService) CreateMemory(ownerID uuid.UUID, req CreateMemoryRequest, maxUploadBytes int64) (*models.Memory, error) {
	profile, err := s.profiles.GetProfile(ownerID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "title cannot be empty"
	}
	if strings.TrimSpace(req.Content) == "" {
		fields["content"] = "content cannot be empty"
	}
	if !models.ValidMood(req.Mood) {
		fields["mood"] = "pick a valid mood"
	}
	if req.LockTimeDays < 0 {
		fields["lock_time_days"] = "lock time cannot be negative"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	lockTime := req.LockTimeDays
	if !profile.LockTimeEditable {
		lockTime = 0
	}

	var total int64
	for _, f := range req.Files {
		total += f.Size
	}
	if total > maxUploadBytes {
		return nil, ErrUploadTooBig
	}

	now := s.now().UTC()
	memory := models.Memory{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		CreatedAt:    now,
		LockTimeDays: lockTime,
		Title:        req.Title,
		Content:      req.Content,
		Mood:         req.Mood,
	}
	if err := s.db.Create(&memory).Error; err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}

	for _, f := range req.Files {
		if err := s.attachUpload(&memory, f); err != nil {
			slog.Error("media attach failed", "memory_id", memory.ID, "file", f.Filename, "error", err)
		}
	}

	if err := s.profiles.TouchLastWritten(ownerID, now); err != nil {
		slog.Error("failed to record last written time", "user_id", ownerID, "error", err)
	}

	return &memory, nil
}

// attachUpload writes the file first and commits the row after, so a
// crash in between leaves an orphan file for the reaper rather than a row
// pointing at nothing.
func (s *MemoryService) attachUpload(memory *models.Memory, f Upload) error {
	reader, err := f.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	storedPath, err := s.store.Save(memory.ID, f.Filename, reader)
	if err != nil {
		return err
	}

	row := models.MemoryMedia{
		ID:         uuid.New(),
		MemoryID:   memory.ID,
		StoredPath: storedPath,
	}
	if err := s.db.Create(&row).Error; err != nil {
		if delErr := s.store.Delete(storedPath); delErr != nil {
			slog.Error("failed to remove media after row insert failure", "path", storedPath, "error", delErr)
		}
		return err
	}
	return nil
}

// MemorySummary is the list representation; locked entries carry no
// content.
type MemorySummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Mood      int       `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
	UnlockAt  time.Time `json:"unlock_at"`
	Unlocked  bool      `json:"unlocked"`
	Content   string    `json:"content,omitempty"`
}

func (s *MemoryService) ListMemories(ownerID uuid.UUID) ([]MemorySummary, error) {
	profile, err := s.profiles.GetProfile(ownerID)
	if err != nil {
		return nil, err
	}

	var memories []models.Memory
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&memories).Error; err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]MemorySummary, 0, len(memories))
	for i := range memories {
		m := &memories[i]
		unlocked := timelock.IsUnlocked(m, profile, now)
		summary := MemorySummary{
			ID:        m.ID,
			Title:     m.Title,
			Mood:      m.Mood,
			CreatedAt: m.CreatedAt,
			UnlockAt:  timelock.UnlockAt(m, profile),
			Unlocked:  unlocked,
		}
		if unlocked {
			summary.Content = m.Content
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// MemoryDetail is the single-entry read representation.
type MemoryDetail struct {
	MemorySummary
	MoodGlyph string      `json:"mood_glyph"`
	MediaIDs  []uuid.UUID `json:"media_ids,omitempty"`
}

// GetMemory returns one memory for its owner. Unknown IDs and foreign
// memories are both ErrMemoryNotFound; a locked memory returns
// ErrMemoryLocked alongside its metadata.
func (s *MemoryService) GetMemory(requesterID uuid.UUID, isAdmin bool, memoryID uuid.UUID) (*MemoryDetail, error) {
	var memory models.Memory
	if err := s.db.First(&memory, "id = ?", memoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, err
	}
	if memory.OwnerID != requesterID && !isAdmin {
		return nil, ErrMemoryNotFound
	}

	profile, err := s.profiles.GetProfile(memory.OwnerID)
	if err != nil {
		return nil, err
	}

	detail := &MemoryDetail{
		MemorySummary: MemorySummary{
			ID:        memory.ID,
			Title:     memory.Title,
			Mood:      memory.Mood,
			CreatedAt: memory.CreatedAt,
			UnlockAt:  timelock.UnlockAt(&memory, profile),
		},
		MoodGlyph: models.MoodGlyphs[memory.Mood],
	}

	if !timelock.IsUnlocked(&memory, profile, s.now()) {
		return detail, ErrMemoryLocked
	}
	detail.Unlocked = true
	detail.Content = memory.Content

	var mediaIDs []uuid.UUID
	if err := s.db.Model(&models.MemoryMedia{}).
		Where("memory_id = ?", memory.ID).
		Order(mediaInsertionOrder).
		Pluck("id", &mediaIDs).Error; err == nil {
		detail.MediaIDs = mediaIDs
	}
	return detail, nil
}

// AuthorizeMedia is the media access gate: the memory must exist, the
// media row must be attached to that exact memory, and the requester must
// be the owner or an admin. Every failure is ErrMediaNotFound so callers
// cannot probe which IDs exist.
func (s *MemoryService) AuthorizeMedia(requesterID uuid.UUID, isAdmin bool, memoryID, mediaID uuid.UUID) (*models.MemoryMedia, error) {
	var memory models.Memory
	if err := s.db.First(&memory, "id = ?", memoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}

	var mediaRow models.MemoryMedia
	if err := s.db.First(&mediaRow, "id = ?", mediaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}

	if err := authorizeMediaAccess(&memory, &mediaRow, requesterID, isAdmin); err != nil {
		return nil, err
	}
	return &mediaRow, nil
}

// authorizeMediaAccess decides whether the requester may read mediaRow
// in the context of memory. Both refusals are the same ErrMediaNotFound,
// so a non-owner holding a valid media ID learns nothing more than
// someone guessing IDs.
func authorizeMediaAccess(memory *models.Memory, mediaRow *models.MemoryMedia, requesterID uuid.UUID, isAdmin bool) error {
	if mediaRow.MemoryID != memory.ID {
		return ErrMediaNotFound
	}
	if memory.OwnerID != requesterID && !isAdmin {
		return ErrMediaNotFound
	}
	return nil
}
