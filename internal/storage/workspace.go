package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Workspace owns the temp directory shared by every pipeline execution. It
// allocates collision-free file paths and tracks which of them are leased by
// an in-flight request, so the sweeper can tell an abandoned file from one
// that is merely old.
type Workspace struct {
	dir       string
	retention time.Duration
	log       zerolog.Logger

	mu     sync.Mutex
	leased map[string]struct{}
}

// NewWorkspace initializes the workspace rooted at dir, creating it if
// needed. Files older than retention are eligible for sweeping unless leased.
func NewWorkspace(dir string, retention time.Duration, log zerolog.Logger) (*Workspace, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: temp dir is required")
	}
	if retention <= 0 {
		return nil, errors.New("storage: retention window must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure temp dir: %w", err)
	}
	return &Workspace{
		dir:       dir,
		retention: retention,
		log:       log,
		leased:    make(map[string]struct{}),
	}, nil
}

// Dir returns the workspace root directory.
func (w *Workspace) Dir() string { return w.dir }

// Allocate reserves a unique path for the given display name and leases it.
// The file itself is created by the caller. The random prefix keeps
// concurrent requests for the same filename from colliding.
func (w *Workspace) Allocate(name string) string {
	unique := uuid.NewString()[:8] + "_" + sanitizeName(name)
	path := filepath.Join(w.dir, unique)
	w.Lease(path)
	return path
}

// Lease marks path as owned by an in-flight request; the sweeper will not
// touch it regardless of age.
func (w *Workspace) Lease(path string) {
	w.mu.Lock()
	w.leased[path] = struct{}{}
	w.mu.Unlock()
}

// Release drops the in-use marker for path.
func (w *Workspace) Release(path string) {
	w.mu.Lock()
	delete(w.leased, path)
	w.mu.Unlock()
}

// Leased reports whether path currently carries an in-use marker.
func (w *Workspace) Leased(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.leased[path]
	return ok
}

// Discard removes the file at path and releases its lease. Used by owners
// tearing down on an error path; a missing file is not an error.
func (w *Workspace) Discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.log.Warn().Err(err).Str("path", path).Msg("failed to discard temp file")
	}
	w.Release(path)
}

// Sweep removes unleased files whose age exceeds the retention window and
// returns how many were deleted. Deletion failures are logged and skipped.
func (w *Workspace) Sweep(now time.Time) int {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn().Err(err).Str("dir", w.dir).Msg("sweep: cannot read temp dir")
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.Leased(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < w.retention {
			continue
		}
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				w.log.Warn().Err(err).Str("path", path).Msg("sweep: failed to delete temp file")
			}
			continue
		}
		removed++
	}
	if removed > 0 {
		w.log.Debug().Int("removed", removed).Msg("sweep: reclaimed orphaned temp files")
	}
	return removed
}

// sanitizeName flattens a client-supplied filename into a safe single path
// element. Keys are cleaned to prevent directory traversal.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == "" {
		return "video"
	}
	return name
}
