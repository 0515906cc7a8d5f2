// Package timelock decides whether a memory's lock period has elapsed.
// All functions are pure; callers inject the current time so sweeps and
// tests can evaluate any instant.
package timelock

import (
	"time"

	"github.com/pmarceau/trove/internal/models"
)

// EffectiveLockDays resolves the lock duration for a memory: the memory's
// own value when nonzero, otherwise the owner's profile default.
func EffectiveLockDays(memory *models.Memory, profile *models.Profile) int {
	if memory.LockTimeDays != 0 {
		return memory.LockTimeDays
	}
	return profile.LockTimeDays
}

// UnlockAt returns the instant the memory becomes readable.
func UnlockAt(memory *models.Memory, profile *models.Profile) time.Time {
	return memory.CreatedAt.AddDate(0, 0, EffectiveLockDays(memory, profile))
}

// IsUnlocked reports whether the memory is readable at now. Monotonic in
// now: once true it stays true.
func IsUnlocked(memory *models.Memory, profile *models.Profile, now time.Time) bool {
	return !now.Before(UnlockAt(memory, profile))
}
