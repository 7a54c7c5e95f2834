package handlers

import (
	"net/http"
)

// Health reports service liveness plus whether the media tool is reachable.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "ffmpeg": true}
	if a.Tool != nil {
		if err := a.Tool.VerifyInstalled(r.Context()); err != nil {
			status["ffmpeg"] = false
		}
	}
	a.json(w, http.StatusOK, status)
}
