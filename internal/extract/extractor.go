// Package extract owns the contract around the external media tool: input
// staging, output format, timeouts, and error classification. It does not
// reimplement any codec logic.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"audio-extractor/internal/domain"
	"audio-extractor/internal/storage"
)

// Extractor turns a staged video into an mp3 artifact by invoking ffmpeg.
type Extractor struct {
	ws         *storage.Workspace
	ffmpegPath string
	timeout    time.Duration
	runner     CommandRunner
	log        zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFFmpegPath sets a custom ffmpeg executable path.
func WithFFmpegPath(path string) Option {
	return func(e *Extractor) {
		e.ffmpegPath = path
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(runner CommandRunner) Option {
	return func(e *Extractor) {
		e.runner = runner
	}
}

// NewExtractor creates an ffmpeg-backed extractor whose invocations are
// bounded by timeout.
func NewExtractor(ws *storage.Workspace, timeout time.Duration, log zerolog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		ws:         ws,
		ffmpegPath: "ffmpeg",
		timeout:    timeout,
		runner:     ExecRunner{},
		log:        log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract transcodes the staged video's audio track to mp3. The staged file
// is deleted on every exit path; a partial output never outlives a failure.
func (e *Extractor) Extract(ctx context.Context, staged *domain.StagedVideo) (*domain.ExtractedAudio, error) {
	defer e.ws.Discard(staged.Path)

	outName := audioFilename(staged.Path)
	outPath := filepath.Join(e.ws.Dir(), outName)
	e.ws.Lease(outPath)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{
		"-nostats", "-hide_banner", "-loglevel", "error",
		"-i", staged.Path,
		"-vn",
		"-acodec", "libmp3lame",
		"-y",
		outPath,
	}

	start := time.Now()
	if err := e.runner.Run(runCtx, e.ffmpegPath, args...); err != nil {
		e.ws.Discard(outPath)
		classified := classify(err, runCtx.Err())
		e.log.Warn().Err(classified).Str("input", staged.OriginalFilename).Msg("audio extraction failed")
		return nil, classified
	}

	if _, err := os.Stat(outPath); err != nil {
		e.ws.Release(outPath)
		return nil, &domain.ExtractionError{Kind: domain.ToolFailure, Err: fmt.Errorf("tool produced no output: %w", err)}
	}

	e.log.Debug().
		Str("input", staged.OriginalFilename).
		Int64("input_bytes", staged.SizeBytes).
		Dur("elapsed", time.Since(start)).
		Msg("audio extracted")

	return &domain.ExtractedAudio{
		Path:      outPath,
		Mimetype:  domain.AudioMimetype,
		Filename:  outName,
		CreatedAt: time.Now(),
	}, nil
}

// VerifyInstalled checks that the ffmpeg binary is available.
func (e *Extractor) VerifyInstalled(ctx context.Context) error {
	if err := e.runner.Run(ctx, e.ffmpegPath, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// classify maps a tool failure onto the extraction error taxonomy using the
// messages ffmpeg emits on stderr.
func classify(err, ctxErr error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return &domain.SystemError{Err: err}
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return &domain.ExtractionError{Kind: domain.ToolFailure, Err: context.DeadlineExceeded}
	case errors.Is(ctxErr, context.Canceled):
		return &domain.ExtractionError{Kind: domain.ToolFailure, Err: context.Canceled}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "moov atom not found"),
		strings.Contains(msg, "invalid data found"),
		strings.Contains(msg, "end of file"):
		return &domain.ExtractionError{Kind: domain.CorruptMedia, Err: err}
	case strings.Contains(msg, "does not contain any stream"),
		strings.Contains(msg, "matches no streams"),
		strings.Contains(msg, "could not find codec"),
		strings.Contains(msg, "decoder not found"):
		return &domain.ExtractionError{Kind: domain.UnsupportedFormat, Err: err}
	}
	return &domain.ExtractionError{Kind: domain.ToolFailure, Err: err}
}

// audioFilename derives the artifact name from the staged path: same unique
// base, mp3 extension. An input that is already named *.mp3 must not map onto
// its own path, so it gets a distinct suffix.
func audioFilename(stagedPath string) string {
	base := filepath.Base(stagedPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".mp3"
	if name == base {
		name = strings.TrimSuffix(base, ".mp3") + "_audio.mp3"
	}
	return name
}
