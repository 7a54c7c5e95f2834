package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"audio-extractor/internal/domain"
)

// Pipeline runs one extraction end to end.
type Pipeline interface {
	Run(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error)
}

// Downloads resolves download tokens to artifacts.
type Downloads interface {
	Resolve(token string) (domain.ExtractedAudio, error)
}

// ToolChecker reports whether the external media tool is reachable.
type ToolChecker interface {
	VerifyInstalled(ctx context.Context) error
}

// App is the handler container; collaborators are injected so tests can run
// against fakes.
type App struct {
	Pipeline  Pipeline
	Downloads Downloads
	Tool      ToolChecker
	Log       zerolog.Logger
}

func NewApp(pipeline Pipeline, downloads Downloads, tool ToolChecker, log zerolog.Logger) *App {
	return &App{Pipeline: pipeline, Downloads: downloads, Tool: tool, Log: log}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}
