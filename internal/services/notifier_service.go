package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pmarceau/trove/internal/mail"
	"github.com/pmarceau/trove/internal/media"
	"github.com/pmarceau/trove/internal/models"
	"github.com/pmarceau/trove/internal/timelock"
	"gorm.io/gorm"
)

// NotifierService finds newly unlocked memories and dispatches one email
// per memory. The notification_sent latch is written right after the
// message is handed to the pool, before delivery: at-most-once
// accounting, best-effort delivery.
type NotifierService struct {
	db       *gorm.DB
	store    *media.Store
	profiles *ProfileService
	enqueue  func(mail.Message) bool
	now      func() time.Time
}

func NewNotifierService(db *gorm.DB, store *media.Store, profiles *ProfileService, pool *mail.Pool) *NotifierService {
	return &NotifierService{
		db:       db,
		store:    store,
		profiles: profiles,
		enqueue:  pool.Enqueue,
		now:      time.Now,
	}
}

// DispatchUnlockNotifications runs one notifier sweep. Memories are
// processed independently; a failure on one is logged and the sweep moves
// on.
func (s *NotifierService) DispatchUnlockNotifications() error {
	var memories []models.Memory
	err := s.db.Preload("Owner").
		Where("notification_sent = ?", false).
		Find(&memories).Error
	if err != nil {
		return fmt.Errorf("list unnotified memories: %w", err)
	}

	now := s.now()
	dispatched := 0
	for i := range memories {
		memory := &memories[i]

		// The owner may lack a profile in edge cases; reconcile before
		// reading the mail policy.
		if err := s.profiles.EnsureProfile(memory.OwnerID); err != nil {
			slog.Error("profile reconcile failed during notifier sweep",
				"memory_id", memory.ID, "error", err)
			continue
		}
		profile, err := s.profiles.GetProfile(memory.OwnerID)
		if err != nil {
			slog.Error("profile lookup failed during notifier sweep",
				"memory_id", memory.ID, "error", err)
			continue
		}

		if !timelock.IsUnlocked(memory, profile, now) {
			continue
		}

		var storedPaths []string
		if err := s.db.Model(&models.MemoryMedia{}).
			Where("memory_id = ?", memory.ID).
			Order(mediaInsertionOrder).
			Pluck("stored_path", &storedPaths).Error; err != nil {
			slog.Warn("media lookup failed, notifying without attachment",
				"memory_id", memory.ID, "error", err)
		}

		if s.processMemory(memory, profile, memory.Owner.Email, storedPaths) {
			dispatched++
		}

		// Latch regardless of policy or dispatch outcome; the memory is
		// never reconsidered.
		if err := s.db.Model(memory).Update("notification_sent", true).Error; err != nil {
			slog.Error("failed to latch notification_sent",
				"memory_id", memory.ID, "error", err)
		}
	}

	if dispatched > 0 {
		slog.Info("unlock notifications dispatched", "count", dispatched)
	}
	return nil
}

// processMemory applies the owner's mail policy and, when it says notify,
// builds the payload and hands it to the pool. Returns whether a message
// was enqueued. No database access.
func (s *NotifierService) processMemory(memory *models.Memory, profile *models.Profile, email string, storedPaths []string) bool {
	if !shouldNotify(profile.MailOnUnlock, memory.Mood) {
		return false
	}

	msg := mail.Message{
		To:          email,
		TemplateKey: mail.TemplateUnlockedMemory,
		Subject:     "A new memory was unlocked!",
		Context: map[string]string{
			"title":      memory.Title,
			"content":    strings.TrimSpace(memory.Content),
			"mood_glyph": models.MoodGlyphs[memory.Mood],
			"language":   profile.PreferredLanguage,
		},
	}
	if attachment := s.firstImageAttachment(storedPaths); attachment != "" {
		msg.Attachments = []string{attachment}
	}
	return s.enqueue(msg)
}

// firstImageAttachment picks the attachment deterministically: the first
// stored file, in insertion order, whose resolved content type is an
// image.
func (s *NotifierService) firstImageAttachment(storedPaths []string) string {
	for _, rel := range storedPaths {
		abs, err := s.store.ResolveSafePath(rel)
		if err != nil || !s.store.Exists(rel) {
			continue
		}
		if strings.HasPrefix(media.ContentType(abs), "image/") {
			return abs
		}
	}
	return ""
}

func shouldNotify(policy, mood int) bool {
	switch policy {
	case models.MailAlways:
		return true
	case models.MailOnlyPositive:
		return models.PositiveMood(mood)
	default:
		return false
	}
}
