package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pmarceau/trove/internal/mail"
	"github.com/pmarceau/trove/internal/media"
	"github.com/pmarceau/trove/internal/models"
	"github.com/pmarceau/trove/internal/timelock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) (*NotifierService, *media.Store, *[]mail.Message) {
	t.Helper()
	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)

	var sent []mail.Message
	notifier := &NotifierService{
		store: store,
		enqueue: func(msg mail.Message) bool {
			sent = append(sent, msg)
			return true
		},
		now: time.Now,
	}
	return notifier, store, &sent
}

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		name   string
		policy int
		mood   int
		want   bool
	}{
		{"always with positive mood", models.MailAlways, 2, true},
		{"always with negative mood", models.MailAlways, 12, true},
		{"only positive with positive mood", models.MailOnlyPositive, 5, true},
		{"only positive with negative mood", models.MailOnlyPositive, 6, false},
		{"never with positive mood", models.MailNever, 1, false},
		{"never with negative mood", models.MailNever, 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldNotify(tt.policy, tt.mood))
		})
	}
}

func TestProcessMemoryBuildsPayload(t *testing.T) {
	notifier, _, sent := newTestNotifier(t)

	memory := &models.Memory{
		ID:      uuid.New(),
		Title:   "First day of school",
		Content: "line one\nline two\n",
		Mood:    3,
	}
	profile := &models.Profile{MailOnUnlock: models.MailAlways, PreferredLanguage: "fr"}

	dispatched := notifier.processMemory(memory, profile, "owner@example.com", nil)

	require.True(t, dispatched)
	require.Len(t, *sent, 1)
	msg := (*sent)[0]
	assert.Equal(t, "owner@example.com", msg.To)
	assert.Equal(t, mail.TemplateUnlockedMemory, msg.TemplateKey)
	assert.Equal(t, "First day of school", msg.Context["title"])
	assert.Equal(t, "line one\nline two", msg.Context["content"])
	assert.Equal(t, models.MoodGlyphs[3], msg.Context["mood_glyph"])
	assert.Equal(t, "fr", msg.Context["language"])
	assert.Empty(t, msg.Attachments)
}

func TestProcessMemoryOnlyPositivePolicySkipsDispatch(t *testing.T) {
	notifier, _, sent := newTestNotifier(t)

	memory := &models.Memory{ID: uuid.New(), Title: "Bad day", Mood: 9}
	profile := &models.Profile{MailOnUnlock: models.MailOnlyPositive}

	assert.False(t, notifier.processMemory(memory, profile, "o@e.c", nil))
	assert.Empty(t, *sent)
}

func TestFirstImageAttachment(t *testing.T) {
	notifier, store, _ := newTestNotifier(t)
	memoryID := uuid.New()

	textPath, err := store.Save(memoryID, "notes.txt", strings.NewReader("plain notes"))
	require.NoError(t, err)
	imagePath, err := store.Save(memoryID, "photo.png", strings.NewReader("png bytes"))
	require.NoError(t, err)
	laterImage, err := store.Save(memoryID, "later.jpg", strings.NewReader("jpg bytes"))
	require.NoError(t, err)

	got := notifier.firstImageAttachment([]string{textPath, imagePath, laterImage})

	want, err := store.ResolveSafePath(imagePath)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFirstImageAttachmentSkipsMissingAndHostilePaths(t *testing.T) {
	notifier, _, _ := newTestNotifier(t)

	got := notifier.firstImageAttachment([]string{
		"../../etc/passwd",
		"memory_media/1/gone.png",
	})
	assert.Empty(t, got)
}

func TestUnlockPipelineEndToEnd(t *testing.T) {
	notifier, _, sent := newTestNotifier(t)

	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	memory := &models.Memory{ID: uuid.New(), CreatedAt: t0, LockTimeDays: 0, Title: "Capsule", Mood: 1}
	profile := &models.Profile{LockTimeDays: 30, MailOnUnlock: models.MailAlways}

	// T0+29d: still locked, the notifier sweep would skip it.
	assert.False(t, timelock.IsUnlocked(memory, profile, t0.AddDate(0, 0, 29)))

	// T0+31d: unlocked, one dispatch.
	require.True(t, timelock.IsUnlocked(memory, profile, t0.AddDate(0, 0, 31)))
	require.True(t, notifier.processMemory(memory, profile, "o@e.c", nil))
	assert.Len(t, *sent, 1)
}
