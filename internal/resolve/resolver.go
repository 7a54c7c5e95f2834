// Package resolve turns an extraction request into a staged video file on
// local disk, fetching remote sources over HTTP and decoding inline payloads.
package resolve

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"audio-extractor/internal/domain"
	"audio-extractor/internal/storage"
)

// Resolver stages request sources into the workspace.
type Resolver struct {
	client   *http.Client
	maxBytes int64
	ws       *storage.Workspace
}

// NewResolver builds a resolver. Remote fetches share a single HTTP client
// bounded by timeout and are capped at maxBytes per download.
func NewResolver(ws *storage.Workspace, maxBytes int64, timeout time.Duration) *Resolver {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
	return &Resolver{client: client, maxBytes: maxBytes, ws: ws}
}

// Resolve materializes the request source as a staged video file. Validation
// failures happen before any file I/O; fetch and write failures never leave a
// partial file behind.
func (r *Resolver) Resolve(ctx context.Context, req domain.ExtractionRequest) (*domain.StagedVideo, error) {
	switch src := req.Source.(type) {
	case domain.URLSource:
		return r.fromURL(ctx, src.URL, req.Filename)
	case domain.Base64Source:
		return r.fromBase64(src.Data, req.Filename)
	case nil:
		return nil, &domain.InputError{Kind: domain.MissingSource}
	default:
		return nil, &domain.SystemError{Err: fmt.Errorf("unknown source variant %T", req.Source)}
	}
}

func (r *Resolver) fromURL(ctx context.Context, rawURL, filename string) (*domain.StagedVideo, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &domain.InputError{Kind: domain.FetchFailure, Err: fmt.Errorf("unsupported url %q", rawURL)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.InputError{Kind: domain.FetchFailure, Err: err}
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, &domain.InputError{Kind: domain.FetchFailure, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.InputError{Kind: domain.FetchFailure, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if resp.ContentLength > r.maxBytes {
		return nil, &domain.InputError{Kind: domain.FetchFailure, Err: fmt.Errorf("content length %d exceeds cap %d", resp.ContentLength, r.maxBytes)}
	}

	if filename == "" {
		filename = path.Base(parsed.Path)
	}
	staged := r.ws.Allocate(filename)

	// Read one byte past the cap so an oversized body is detected rather
	// than silently truncated.
	written, err := writeFile(staged, io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		r.ws.Discard(staged)
		return nil, &domain.InputError{Kind: domain.FetchFailure, Err: err}
	}
	if written > r.maxBytes {
		r.ws.Discard(staged)
		return nil, &domain.InputError{Kind: domain.FetchFailure, Err: fmt.Errorf("download exceeds cap of %d bytes", r.maxBytes)}
	}

	return &domain.StagedVideo{
		Path:             staged,
		OriginalFilename: sourceName(filename),
		SizeBytes:        written,
		CreatedAt:        time.Now(),
	}, nil
}

func (r *Resolver) fromBase64(data, filename string) (*domain.StagedVideo, error) {
	// Payloads pasted from browsers often carry a "data:video/mp4;base64,"
	// prefix; everything before the first comma is metadata.
	if idx := strings.IndexByte(data, ','); idx >= 0 {
		data = data[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, &domain.InputError{Kind: domain.DecodeFailure, Err: err}
	}

	staged := r.ws.Allocate(filename)
	if err := os.WriteFile(staged, decoded, 0o644); err != nil {
		r.ws.Discard(staged)
		return nil, &domain.SystemError{Err: fmt.Errorf("stage decoded payload: %w", err)}
	}

	return &domain.StagedVideo{
		Path:             staged,
		OriginalFilename: sourceName(filename),
		SizeBytes:        int64(len(decoded)),
		CreatedAt:        time.Now(),
	}, nil
}

func writeFile(path string, src io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create staged file: %w", err)
	}
	written, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return written, fmt.Errorf("write staged file: %w", err)
	}
	return written, nil
}

func sourceName(filename string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" || filename == "/" || filename == "." {
		return "video"
	}
	return path.Base(filename)
}
