package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"audio-extractor/internal/domain"
)

// Download handles GET /download/{filename}, streaming the artifact bytes.
// Unknown and expired tokens are both 404; so is an entry whose file has
// already been reclaimed underneath it.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "filename")
	if token == "" {
		a.error(w, http.StatusNotFound, "not_found", "file not found")
		return
	}

	audio, err := a.Downloads.Resolve(token)
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	if err != nil {
		a.Log.Error().Err(err).Str("token", token).Msg("download lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	f, err := os.Open(audio.Path)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", audio.Mimetype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", audio.Filename))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	}
	if _, err := io.Copy(w, f); err != nil {
		a.Log.Warn().Err(err).Str("token", token).Msg("download stream interrupted")
	}
}
