package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pmarceau/trove/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrace = 24 * time.Hour

func newTestReaper(t *testing.T) (*ReaperService, *media.Store) {
	t.Helper()
	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)
	return &ReaperService{store: store, grace: testGrace, now: time.Now}, store
}

func writeFileAged(t *testing.T, store *media.Store, rel string, age time.Duration) {
	t.Helper()
	abs, err := store.ResolveSafePath(rel)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o750))
	require.NoError(t, os.WriteFile(abs, []byte("payload"), 0o640))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(abs, mtime, mtime))
}

func refs(paths ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		m[p] = struct{}{}
	}
	return m
}

func TestSweepDeletesAgedOrphans(t *testing.T) {
	reaper, store := newTestReaper(t)
	writeFileAged(t, store, "memory_media/1/orphan.png", 48*time.Hour)

	result := reaper.sweepFiles(refs(), time.Now())

	assert.Equal(t, 1, result.Deleted)
	assert.False(t, store.Exists("memory_media/1/orphan.png"))
}

func TestSweepKeepsFilesInsideGracePeriod(t *testing.T) {
	reaper, store := newTestReaper(t)
	writeFileAged(t, store, "memory_media/1/fresh.png", 5*time.Second)

	result := reaper.sweepFiles(refs(), time.Now())

	assert.Zero(t, result.Deleted)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, store.Exists("memory_media/1/fresh.png"))
}

func TestSweepNeverDeletesReferencedFiles(t *testing.T) {
	reaper, store := newTestReaper(t)
	writeFileAged(t, store, "memory_media/1/live.png", 30*24*time.Hour)

	result := reaper.sweepFiles(refs("memory_media/1/live.png"), time.Now())

	assert.Zero(t, result.Deleted)
	assert.True(t, store.Exists("memory_media/1/live.png"))
}

func TestSweepContinuesPastMixedOutcomes(t *testing.T) {
	reaper, store := newTestReaper(t)
	writeFileAged(t, store, "memory_media/1/old-orphan.png", 48*time.Hour)
	writeFileAged(t, store, "memory_media/2/fresh-orphan.png", time.Minute)
	writeFileAged(t, store, "memory_media/3/live.png", 48*time.Hour)

	result := reaper.sweepFiles(refs("memory_media/3/live.png"), time.Now())

	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, store.Exists("memory_media/2/fresh-orphan.png"))
	assert.True(t, store.Exists("memory_media/3/live.png"))
}

func TestSweepIsIdempotent(t *testing.T) {
	reaper, store := newTestReaper(t)
	writeFileAged(t, store, "memory_media/1/orphan.png", 48*time.Hour)

	first := reaper.sweepFiles(refs(), time.Now())
	second := reaper.sweepFiles(refs(), time.Now())

	assert.Equal(t, 1, first.Deleted)
	assert.Zero(t, second.Deleted)
	assert.Zero(t, second.Errors)
}

func TestSweepPrunesEmptiedDirectories(t *testing.T) {
	reaper, store := newTestReaper(t)
	writeFileAged(t, store, "memory_media/1/orphan.png", 48*time.Hour)

	reaper.sweepFiles(refs(), time.Now())

	_, err := os.Stat(filepath.Join(store.Root(), "memory_media", "1"))
	assert.True(t, os.IsNotExist(err))
}
