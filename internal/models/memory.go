package models

import (
	"time"

	"github.com/google/uuid"
)

// MoodGlyphs maps mood values 1..12 to their display glyph. Moods 1..5
// count as positive for the OnlyPositive mail policy.
var MoodGlyphs = map[int]string{
	1:  "😀",
	2:  "🙂",
	3:  "😊",
	4:  "🤩",
	5:  "😜",
	6:  "😐",
	7:  "😒",
	8:  "😮‍💨",
	9:  "😔",
	10: "🤕",
	11: "🙁",
	12: "😢",
}

const (
	MoodMin          = 1
	MoodMax          = 12
	lastPositiveMood = 5
)

func ValidMood(mood int) bool {
	return mood >= MoodMin && mood <= MoodMax
}

func PositiveMood(mood int) bool {
	return mood >= MoodMin && mood <= lastPositiveMood
}

// Memory is a single diary entry. Immutable after creation except for the
// NotificationSent latch, which only ever goes false -> true.
type Memory struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID          uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
	LockTimeDays     int       `gorm:"not null" json:"lock_time_days"` // 0 inherits the owner's profile default
	Title            string    `gorm:"size:255;not null" json:"title"`
	Content          string    `gorm:"type:text;not null" json:"content"`
	Mood             int       `gorm:"not null" json:"mood"`
	NotificationSent bool      `gorm:"default:false;index" json:"-"`
	Owner            User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// MemoryMedia references one stored file of a memory. StoredPath is always
// relative to the private media root and chosen by the media store, never
// by the client.
type MemoryMedia struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MemoryID   uuid.UUID `gorm:"type:uuid;not null;index" json:"memory_id"`
	StoredPath string    `gorm:"size:512;not null;uniqueIndex" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	Memory     Memory    `gorm:"foreignKey:MemoryID;constraint:OnDelete:CASCADE" json:"-"`
}
