package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"audio-extractor/internal/http/handlers"
	"audio-extractor/internal/middleware"
)

// Options tunes the ambient middleware around the handler set.
type Options struct {
	Log             zerolog.Logger
	RateLimitPerMin int
	CORSOrigins     []string
}

// NewRouter builds the chi router with the middleware chain and routes.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Log),
		chimw.Recoverer,
	)
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/download/{filename}", app.Download)

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/extract-audio", app.ExtractAudio)
	})

	return r
}
