package timelock

import (
	"testing"
	"time"

	"github.com/pmarceau/trove/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveLockDays(t *testing.T) {
	profile := &models.Profile{LockTimeDays: 365}

	assert.Equal(t, 365, EffectiveLockDays(&models.Memory{LockTimeDays: 0}, profile))
	assert.Equal(t, 30, EffectiveLockDays(&models.Memory{LockTimeDays: 30}, profile))
}

func TestIsUnlocked(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	memory := &models.Memory{CreatedAt: created, LockTimeDays: 0}
	profile := &models.Profile{LockTimeDays: 30}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one day in", created.AddDate(0, 0, 1), false},
		{"day before unlock", created.AddDate(0, 0, 29), false},
		{"exactly at unlock", created.AddDate(0, 0, 30), true},
		{"day after unlock", created.AddDate(0, 0, 31), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnlocked(memory, profile, tt.now))
		})
	}
}

func TestIsUnlockedMonotonic(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	memory := &models.Memory{CreatedAt: created, LockTimeDays: 7}
	profile := &models.Profile{LockTimeDays: 365}

	unlocked := false
	for day := 0; day <= 20; day++ {
		now := created.AddDate(0, 0, day)
		if IsUnlocked(memory, profile, now) {
			unlocked = true
		} else {
			require.False(t, unlocked, "memory relocked at day %d", day)
		}
	}
	assert.True(t, unlocked)
}

func TestProfileDefaultOnlyAffectsInheritingMemories(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inheriting := &models.Memory{CreatedAt: created, LockTimeDays: 0}
	overriding := &models.Memory{CreatedAt: created, LockTimeDays: 10}

	short := &models.Profile{LockTimeDays: 5}
	long := &models.Profile{LockTimeDays: 50}

	assert.NotEqual(t, UnlockAt(inheriting, short), UnlockAt(inheriting, long))
	assert.Equal(t, UnlockAt(overriding, short), UnlockAt(overriding, long))
}
