package models

import (
	"time"

	"github.com/google/uuid"
)

// Mail-on-unlock policies.
const (
	MailAlways       = 1
	MailOnlyPositive = 2
	MailNever        = 3
)

// Profile holds a user's diary preferences. Exactly one row per user,
// enforced by the unique index on UserID so concurrent ensure calls from
// request handlers and the scheduler cannot create duplicates.
type Profile struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	LockTimeDays        int        `gorm:"default:365" json:"lock_time_days"`
	LockTimeEditable    bool       `gorm:"default:true" json:"lock_time_editable"`
	MailReminderDays    int        `gorm:"default:7" json:"mail_reminder_days"`
	MailOnUnlock        int        `gorm:"default:1" json:"mail_on_unlock"`
	MailNewsletter      bool       `gorm:"default:true" json:"mail_newsletter"`
	PreferredLanguage   string     `gorm:"size:10;default:'en'" json:"preferred_language"`
	LastMemoryWrittenAt *time.Time `json:"last_memory_written_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	User                User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func ValidMailOnUnlock(v int) bool {
	return v >= MailAlways && v <= MailNever
}
