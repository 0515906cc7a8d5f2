package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pmarceau/trove/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidMailPolicy = errors.New("invalid mail-on-unlock policy")
	ErrNegativeDays      = errors.New("day counts cannot be negative")
)

// ProfileService reconciles and mutates per-user preference records.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// profileConflict makes the ensure insert conditional on the unique
// user_id index. Concurrent inserts for the same user all converge on
// the one existing row instead of erroring or duplicating.
var profileConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "user_id"}},
	DoNothing: true,
}

// EnsureProfile creates a default profile for the user if none exists.
// Safe to call any number of times, from request handlers and the
// scheduler safety net alike.
func (s *ProfileService) EnsureProfile(userID uuid.UUID) error {
	profile := models.Profile{
		ID:     uuid.New(),
		UserID: userID,
	}
	if err := s.db.Clauses(profileConflict).Create(&profile).Error; err != nil {
		return fmt.Errorf("ensure profile for %s: %w", userID, err)
	}
	return nil
}

// EnsureProfilesForAll backfills profiles for every user that lacks one.
// Periodic safety net behind the per-request ensure.
func (s *ProfileService) EnsureProfilesForAll() error {
	var userIDs []uuid.UUID
	err := s.db.Model(&models.User{}).
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.id IS NULL").
		Pluck("users.id", &userIDs).Error
	if err != nil {
		return fmt.Errorf("list users without profile: %w", err)
	}

	for _, userID := range userIDs {
		if err := s.EnsureProfile(userID); err != nil {
			slog.Error("profile backfill failed", "user_id", userID, "error", err)
		}
	}
	if len(userIDs) > 0 {
		slog.Info("profile backfill completed", "created", len(userIDs))
	}
	return nil
}

func (s *ProfileService) GetProfile(userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// PreferencesUpdate carries the writable profile fields.
type PreferencesUpdate struct {
	LockTimeDays     int
	LockTimeEditable bool
	MailReminderDays int
	MailOnUnlock     int
	MailNewsletter   bool
}

// UpdatePreferences applies user preference changes. The lock time is
// only written while the profile still allows editing, and disabling
// LockTimeEditable is a one-way latch.
func (s *ProfileService) UpdatePreferences(userID uuid.UUID, update PreferencesUpdate) (*models.Profile, error) {
	if !models.ValidMailOnUnlock(update.MailOnUnlock) {
		return nil, ErrInvalidMailPolicy
	}
	if update.LockTimeDays < 0 || update.MailReminderDays < 0 {
		return nil, ErrNegativeDays
	}

	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	applyPreferences(profile, update)

	if err := s.db.Save(profile).Error; err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return profile, nil
}

// applyPreferences writes the update onto the profile in memory. The
// lock time is only touched while the latch is open, and once the
// update closes it no later update reopens it.
func applyPreferences(profile *models.Profile, update PreferencesUpdate) {
	if profile.LockTimeEditable {
		profile.LockTimeDays = update.LockTimeDays
		if !update.LockTimeEditable {
			profile.LockTimeEditable = false
		}
	}
	profile.MailReminderDays = update.MailReminderDays
	profile.MailOnUnlock = update.MailOnUnlock
	profile.MailNewsletter = update.MailNewsletter
}

// TouchLastWritten records when the user last wrote a memory, used for
// reminder scheduling.
func (s *ProfileService) TouchLastWritten(userID uuid.UUID, at time.Time) error {
	return s.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("last_memory_written_at", at).Error
}
