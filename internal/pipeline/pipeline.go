// Package pipeline runs the request-to-artifact flow: resolve the source,
// extract the audio, and package the dual-mode response.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"audio-extractor/internal/domain"
)

// Resolver stages a request source as a local video file.
type Resolver interface {
	Resolve(ctx context.Context, req domain.ExtractionRequest) (*domain.StagedVideo, error)
}

// Extractor produces an audio artifact from a staged video, consuming the
// staged file in the process.
type Extractor interface {
	Extract(ctx context.Context, staged *domain.StagedVideo) (*domain.ExtractedAudio, error)
}

// Registrar mints download tokens for finished artifacts.
type Registrar interface {
	Register(audio domain.ExtractedAudio) string
}

// ArtifactDiscarder tears down an artifact file that never made it into a
// response.
type ArtifactDiscarder interface {
	Discard(path string)
}

// Pipeline executes one extraction per call. The two heavy stages (network
// fetch and tool invocation) run under a bounded semaphore so slow requests
// cannot starve the rest of the process.
type Pipeline struct {
	resolver  Resolver
	extractor Extractor
	registrar Registrar
	discarder ArtifactDiscarder
	heavy     *semaphore.Weighted
	baseURL   string
	log       zerolog.Logger
}

// New wires a pipeline. maxWorkers bounds concurrent heavy stages; baseURL
// prefixes minted download URLs.
func New(resolver Resolver, extractor Extractor, registrar Registrar, discarder ArtifactDiscarder, maxWorkers int64, baseURL string, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		extractor: extractor,
		registrar: registrar,
		discarder: discarder,
		heavy:     semaphore.NewWeighted(maxWorkers),
		baseURL:   baseURL,
		log:       log,
	}
}

// Run executes the full pipeline for one request. Whatever the outcome, no
// staged temp file created for this request survives the return; the only
// file left behind on success is the registered artifact, whose lifecycle the
// registry now owns.
func (p *Pipeline) Run(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error) {
	audio, err := p.produce(ctx, req)
	if err != nil {
		return domain.ExtractionResponse{}, err
	}
	return p.packageAudio(*audio)
}

// produce runs the heavy half of the pipeline under the worker semaphore.
func (p *Pipeline) produce(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractedAudio, error) {
	if err := p.heavy.Acquire(ctx, 1); err != nil {
		return nil, &domain.SystemError{Err: fmt.Errorf("acquire worker: %w", err)}
	}
	defer p.heavy.Release(1)

	staged, err := p.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	// The extractor consumes the staged file on every exit path.
	return p.extractor.Extract(ctx, staged)
}

// packageAudio performs the two deliveries from one artifact: inline base64
// bytes and a registered download URL. Encoding happens first so a read-back
// failure never leaves a dangling token.
func (p *Pipeline) packageAudio(audio domain.ExtractedAudio) (domain.ExtractionResponse, error) {
	data, err := os.ReadFile(audio.Path)
	if err != nil {
		p.discarder.Discard(audio.Path)
		return domain.ExtractionResponse{}, &domain.SystemError{Err: fmt.Errorf("read artifact back: %w", err)}
	}

	token := p.registrar.Register(audio)

	p.log.Info().
		Str("token", token).
		Int("artifact_bytes", len(data)).
		Msg("extraction complete")

	return domain.ExtractionResponse{
		DownloadURL: p.baseURL + "/download/" + token,
		Base64Data:  base64.StdEncoding.EncodeToString(data),
		Mimetype:    audio.Mimetype,
		Filename:    audio.Filename,
	}, nil
}
