package services

import (
	"testing"

	"github.com/pmarceau/trove/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPreferencesLockTimeLatch(t *testing.T) {
	tests := []struct {
		name         string
		profile      models.Profile
		update       PreferencesUpdate
		wantDays     int
		wantEditable bool
	}{
		{
			name:         "open latch applies lock time",
			profile:      models.Profile{LockTimeDays: 365, LockTimeEditable: true},
			update:       PreferencesUpdate{LockTimeDays: 30, LockTimeEditable: true},
			wantDays:     30,
			wantEditable: true,
		},
		{
			name:         "update can close the latch",
			profile:      models.Profile{LockTimeDays: 365, LockTimeEditable: true},
			update:       PreferencesUpdate{LockTimeDays: 90, LockTimeEditable: false},
			wantDays:     90,
			wantEditable: false,
		},
		{
			name:         "closed latch ignores lock time",
			profile:      models.Profile{LockTimeDays: 365, LockTimeEditable: false},
			update:       PreferencesUpdate{LockTimeDays: 1, LockTimeEditable: false},
			wantDays:     365,
			wantEditable: false,
		},
		{
			name:         "closed latch cannot be reopened",
			profile:      models.Profile{LockTimeDays: 365, LockTimeEditable: false},
			update:       PreferencesUpdate{LockTimeDays: 1, LockTimeEditable: true},
			wantDays:     365,
			wantEditable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applyPreferences(&tt.profile, tt.update)
			assert.Equal(t, tt.wantDays, tt.profile.LockTimeDays)
			assert.Equal(t, tt.wantEditable, tt.profile.LockTimeEditable)
		})
	}
}

func TestApplyPreferencesLatchStaysClosedAcrossUpdates(t *testing.T) {
	profile := models.Profile{LockTimeDays: 365, LockTimeEditable: true}

	applyPreferences(&profile, PreferencesUpdate{LockTimeDays: 30, LockTimeEditable: false})
	require.False(t, profile.LockTimeEditable)
	require.Equal(t, 30, profile.LockTimeDays)

	for i := 0; i < 5; i++ {
		applyPreferences(&profile, PreferencesUpdate{LockTimeDays: i, LockTimeEditable: true})
	}
	assert.False(t, profile.LockTimeEditable)
	assert.Equal(t, 30, profile.LockTimeDays)
}

func TestApplyPreferencesMailFieldsAlwaysWritable(t *testing.T) {
	profile := models.Profile{LockTimeEditable: false, MailOnUnlock: models.MailAlways, MailReminderDays: 7, MailNewsletter: true}

	applyPreferences(&profile, PreferencesUpdate{
		MailReminderDays: 14,
		MailOnUnlock:     models.MailNever,
		MailNewsletter:   false,
	})

	assert.Equal(t, 14, profile.MailReminderDays)
	assert.Equal(t, models.MailNever, profile.MailOnUnlock)
	assert.False(t, profile.MailNewsletter)
}

// Repeated ensures converge on one row because the insert is conditional
// on the unique user_id index: conflicting inserts do nothing rather
// than erroring or duplicating.
func TestProfileConflictClauseShape(t *testing.T) {
	require.Len(t, profileConflict.Columns, 1)
	assert.Equal(t, "user_id", profileConflict.Columns[0].Name)
	assert.True(t, profileConflict.DoNothing)
}
