package services

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pmarceau/trove/internal/media"
	"github.com/pmarceau/trove/internal/models"
	"gorm.io/gorm"
)

// ReaperService deletes private media files no longer referenced by any
// database row. The grace period is the only guard against racing an
// upload whose row has not committed yet, so it must stay comfortably
// longer than any realistic upload.
type ReaperService struct {
	db    *gorm.DB
	store *media.Store
	grace time.Duration
	now   func() time.Time
}

func NewReaperService(db *gorm.DB, store *media.Store, grace time.Duration) *ReaperService {
	return &ReaperService{db: db, store: store, grace: grace, now: time.Now}
}

// SweepResult counts one sweep's outcomes.
type SweepResult struct {
	Scanned int
	Deleted int
	Skipped int
	Errors  int
}

// SweepOrphanedMedia runs one full sweep. Individual file failures are
// logged and skipped; the sweep itself is idempotent and simply retried
// on the next tick, so no progress is persisted.
func (s *ReaperService) SweepOrphanedMedia() error {
	var paths []string
	if err := s.db.Model(&models.MemoryMedia{}).Pluck("stored_path", &paths).Error; err != nil {
		return fmt.Errorf("collect referenced media: %w", err)
	}

	referenced := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		referenced[p] = struct{}{}
	}

	result := s.sweepFiles(referenced, s.now())
	slog.Info("orphan media sweep completed",
		"scanned", result.Scanned,
		"deleted", result.Deleted,
		"skipped", result.Skipped,
		"errors", result.Errors)
	return nil
}

func (s *ReaperService) sweepFiles(referenced map[string]struct{}, now time.Time) SweepResult {
	var result SweepResult
	root := s.store.Root()

	filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors++
			slog.Warn("orphan sweep cannot visit path", "path", p, "error", err)
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		result.Scanned++

		rel, err := filepath.Rel(root, p)
		if err != nil {
			result.Skipped++
			return nil
		}
		rel = filepath.ToSlash(rel)

		if _, ok := referenced[rel]; ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Errors++
			slog.Warn("orphan sweep cannot stat file", "path", rel, "error", err)
			return nil
		}
		if now.Sub(info.ModTime()) < s.grace {
			// Possibly an in-flight upload; leave it for a later sweep.
			result.Skipped++
			return nil
		}

		if err := s.store.Delete(rel); err != nil {
			result.Errors++
			slog.Warn("orphan sweep failed to delete file", "path", rel, "error", err)
			return nil
		}
		result.Deleted++
		slog.Info("orphan media deleted", "path", rel)
		return nil
	})

	s.store.PruneEmptyDirs(media.MediaSubdir)
	return result
}
