// Package registry maps opaque download tokens to artifact files for the
// duration of the retention window.
package registry

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"audio-extractor/internal/domain"
	"audio-extractor/internal/storage"
)

type entry struct {
	artifact  domain.ExtractedAudio
	expiresAt time.Time
}

// Registry is the in-memory token table. Entries move Active → Expired as
// the clock passes their deadline, and Expired → Purged when the janitor
// sweeps them; resolving an expired token already fails before the purge.
type Registry struct {
	retention time.Duration
	ws        *storage.Workspace
	log       zerolog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty registry with the given retention window.
func New(ws *storage.Workspace, retention time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		retention: retention,
		ws:        ws,
		log:       log,
		now:       time.Now,
		entries:   make(map[string]entry),
	}
}

// Register takes over the artifact file and mints its download token. The
// artifact's workspace lease is kept until the entry is purged so the
// orphan sweeper never races an active download.
func (r *Registry) Register(audio domain.ExtractedAudio) string {
	token := audio.Filename
	r.ws.Lease(audio.Path)

	r.mu.Lock()
	r.entries[token] = entry{
		artifact:  audio,
		expiresAt: r.now().Add(r.retention),
	}
	r.mu.Unlock()

	return token
}

// Resolve returns the artifact behind token. Unknown and expired tokens are
// indistinguishable to the caller.
func (r *Registry) Resolve(token string) (domain.ExtractedAudio, error) {
	r.mu.RLock()
	e, ok := r.entries[token]
	r.mu.RUnlock()

	if !ok || r.now().After(e.expiresAt) {
		return domain.ExtractedAudio{}, domain.ErrNotFound
	}
	return e.artifact, nil
}

// Len reports the number of live entries, expired or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep purges entries whose retention window elapsed before now: the table
// entry is reclaimed, the file deleted, and its lease released. Deletion
// failures are logged and do not abort the sweep.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []entry
	for token, e := range r.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
			delete(r.entries, token)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		if err := os.Remove(e.artifact.Path); err != nil && !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("path", e.artifact.Path).Msg("failed to purge expired artifact")
		}
		r.ws.Release(e.artifact.Path)
	}
	return len(expired)
}
