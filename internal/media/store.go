// Package media owns the private media root: traversal-safe path
// resolution, upload storage and best-effort deletion. Stored paths are
// always root-relative with forward slashes; the absolute location never
// leaves this package.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaSubdir is the upload subfolder under the private root, one
// directory per memory below it.
const MediaSubdir = "memory_media"

var ErrTraversal = errors.New("path escapes private media root")

type Store struct {
	root string // absolute, cleaned
}

func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) Root() string {
	return s.root
}

// ResolveSafePath joins rel onto the root and canonicalizes the result.
// Returns ErrTraversal when the canonical path is not inside the root.
// Every filesystem read or delete driven by a stored or user-supplied
// fragment must go through here first.
func (s *Store) ResolveSafePath(rel string) (string, error) {
	joined := filepath.Join(s.root, filepath.FromSlash(rel))
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", ErrTraversal
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", ErrTraversal
	}
	return abs, nil
}

func (s *Store) Exists(rel string) bool {
	abs, err := s.ResolveSafePath(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes a stored file. Best-effort: callers log failures and
// carry on.
func (s *Store) Delete(rel string) error {
	abs, err := s.ResolveSafePath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Save writes an uploaded file under MediaSubdir/<memoryID>/ and returns
// the root-relative stored path. The stored name is a fresh UUID with the
// sanitized original extension, so clients never influence the path.
// The write goes to a temp file first and is renamed into place, keeping
// partially written files out of the orphan reaper's sight under their
// final name.
func (s *Store) Save(memoryID uuid.UUID, filename string, r io.Reader) (string, error) {
	rel := path.Join(MediaSubdir, memoryID.String(), uuid.New().String()+safeExt(filename))
	abs, err := s.ResolveSafePath(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close media file: %w", err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize media file: %w", err)
	}
	return rel, nil
}

// PruneEmptyDirs removes empty subdirectories under the given top-level
// upload folder, deepest first. Failures are ignored; the next sweep
// retries.
func (s *Store) PruneEmptyDirs(top string) {
	abs, err := s.ResolveSafePath(top)
	if err != nil {
		return
	}

	var dirs []string
	filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
		if err == nil && d.IsDir() && p != abs {
			dirs = append(dirs, p)
		}
		return nil
	})

	// Children sort after parents, so walk the list backwards.
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err == nil && len(entries) == 0 {
			os.Remove(dirs[i])
		}
	}
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
