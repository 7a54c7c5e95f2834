package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"audio-extractor/internal/extract"
	"audio-extractor/internal/http/handlers"
	"audio-extractor/internal/http/httpapi"
	"audio-extractor/internal/infra"
	"audio-extractor/internal/pipeline"
	"audio-extractor/internal/registry"
	"audio-extractor/internal/resolve"
	"audio-extractor/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ws, err := storage.NewWorkspace(cfg.TempDir, cfg.RetentionWindow, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize workspace")
	}

	reg := registry.New(ws, cfg.RetentionWindow, logger)

	resolver := resolve.NewResolver(ws, cfg.MaxDownloadBytes, cfg.FetchTimeout)
	extractor := extract.NewExtractor(ws, cfg.ExtractTimeout, logger,
		extract.WithFFmpegPath(cfg.FFmpegPath))
	if err := extractor.VerifyInstalled(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("ffmpeg unavailable at startup; extraction requests will fail")
	}

	pipe := pipeline.New(resolver, extractor, reg, ws, int64(cfg.MaxWorkers), cfg.PublicBaseURL, logger)

	// The janitor reclaims expired artifacts first, then orphaned temp files.
	janitor := storage.NewJanitor(cfg.SweepInterval, logger, reg, ws)
	if err := janitor.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start janitor")
	}

	app := handlers.NewApp(pipe, reg, extractor, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Log:             logger,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CORSOrigins:     cfg.CORSOrigins,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	janitor.Stop()
	logger.Info().Msg("server stopped")
}
