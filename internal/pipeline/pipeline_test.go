package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"audio-extractor/internal/domain"
	"audio-extractor/internal/registry"
	"audio-extractor/internal/storage"
)

// fakeResolver stages a fixed payload.
type fakeResolver struct {
	ws  *storage.Workspace
	err error
}

func (f *fakeResolver) Resolve(ctx context.Context, req domain.ExtractionRequest) (*domain.StagedVideo, error) {
	if f.err != nil {
		return nil, f.err
	}
	path := f.ws.Allocate("clip.mp4")
	if err := os.WriteFile(path, []byte("fake video"), 0o644); err != nil {
		return nil, err
	}
	return &domain.StagedVideo{Path: path, OriginalFilename: "clip.mp4", SizeBytes: 10, CreatedAt: time.Now()}, nil
}

// fakeExtractor consumes the staged file like the real engine does and writes
// an mp3 next to it.
type fakeExtractor struct {
	ws      *storage.Workspace
	audio   []byte
	err     error
	inUse   atomic.Int64
	maxSeen atomic.Int64
}

func (f *fakeExtractor) Extract(ctx context.Context, staged *domain.StagedVideo) (*domain.ExtractedAudio, error) {
	cur := f.inUse.Add(1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	defer f.inUse.Add(-1)

	f.ws.Discard(staged.Path)
	if f.err != nil {
		return nil, f.err
	}

	name := strings.TrimSuffix(staged.OriginalFilename, ".mp4") + ".mp3"
	path := f.ws.Allocate(name)
	if err := os.WriteFile(path, f.audio, 0o644); err != nil {
		return nil, err
	}
	return &domain.ExtractedAudio{Path: path, Mimetype: domain.AudioMimetype, Filename: name, CreatedAt: time.Now()}, nil
}

func newTestPipeline(t *testing.T, maxWorkers int64, extractErr error) (*Pipeline, *storage.Workspace, *registry.Registry, *fakeExtractor) {
	t.Helper()
	ws, err := storage.NewWorkspace(t.TempDir(), time.Hour, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	reg := registry.New(ws, time.Hour, zerolog.Nop())
	fx := &fakeExtractor{ws: ws, audio: []byte("mp3 bytes"), err: extractErr}
	p := New(&fakeResolver{ws: ws}, fx, reg, ws, maxWorkers, "http://localhost:8080", zerolog.Nop())
	return p, ws, reg, fx
}

func TestRunProducesDualDelivery(t *testing.T) {
	p, _, reg, _ := newTestPipeline(t, 2, nil)

	resp, err := p.Run(context.Background(), domain.ExtractionRequest{
		Source: domain.Base64Source{Data: "ignored by fake"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if resp.Mimetype != "audio/mp3" {
		t.Fatalf("Mimetype = %q, want audio/mp3", resp.Mimetype)
	}
	if !strings.HasSuffix(resp.Filename, ".mp3") {
		t.Fatalf("Filename = %q, want .mp3 suffix", resp.Filename)
	}
	if !strings.HasPrefix(resp.DownloadURL, "http://localhost:8080/download/") {
		t.Fatalf("DownloadURL = %q", resp.DownloadURL)
	}

	token := strings.TrimPrefix(resp.DownloadURL, "http://localhost:8080/download/")
	audio, err := reg.Resolve(token)
	if err != nil {
		t.Fatalf("token not registered: %v", err)
	}

	// Round trip: the inline bytes decode to exactly what is on disk.
	decoded, err := base64.StdEncoding.DecodeString(resp.Base64Data)
	if err != nil {
		t.Fatalf("inline payload is not valid base64: %v", err)
	}
	onDisk, err := os.ReadFile(audio.Path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(decoded) != string(onDisk) {
		t.Fatal("inline bytes differ from the artifact on disk")
	}
}

func TestRunCleanupOnSuccessAndFailure(t *testing.T) {
	tests := []struct {
		name       string
		extractErr error
		wantFiles  int
	}{
		{name: "success leaves only the artifact", wantFiles: 1},
		{name: "failure leaves nothing", extractErr: &domain.ExtractionError{Kind: domain.ToolFailure}, wantFiles: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, ws, _, _ := newTestPipeline(t, 2, tc.extractErr)

			_, err := p.Run(context.Background(), domain.ExtractionRequest{
				Source: domain.Base64Source{Data: "x"},
			})
			if (tc.extractErr == nil) != (err == nil) {
				t.Fatalf("unexpected error state: %v", err)
			}

			entries, readErr := os.ReadDir(ws.Dir())
			if readErr != nil {
				t.Fatalf("ReadDir: %v", readErr)
			}
			if len(entries) != tc.wantFiles {
				t.Fatalf("workspace holds %d files, want %d", len(entries), tc.wantFiles)
			}
		})
	}
}

func TestRunPropagatesResolverError(t *testing.T) {
	ws, err := storage.NewWorkspace(t.TempDir(), time.Hour, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	reg := registry.New(ws, time.Hour, zerolog.Nop())
	wantErr := &domain.InputError{Kind: domain.DecodeFailure}
	p := New(&fakeResolver{ws: ws, err: wantErr}, &fakeExtractor{ws: ws}, reg, ws, 1, "http://localhost", zerolog.Nop())

	_, err = p.Run(context.Background(), domain.ExtractionRequest{Source: domain.Base64Source{Data: "x"}})
	var inputErr *domain.InputError
	if !errors.As(err, &inputErr) || inputErr.Kind != domain.DecodeFailure {
		t.Fatalf("expected DecodeFailure, got %v", err)
	}
}

func TestRunBoundsConcurrentHeavyWork(t *testing.T) {
	p, _, _, fx := newTestPipeline(t, 2, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Run(context.Background(), domain.ExtractionRequest{
				Source: domain.Base64Source{Data: "x"},
			})
		}()
	}
	wg.Wait()

	if seen := fx.maxSeen.Load(); seen > 2 {
		t.Fatalf("observed %d concurrent extractions, want at most 2", seen)
	}
}

func TestPackageReadBackFailureMintsNoToken(t *testing.T) {
	p, ws, reg, _ := newTestPipeline(t, 1, nil)

	gone := domain.ExtractedAudio{
		Path:     ws.Dir() + "/missing.mp3",
		Mimetype: domain.AudioMimetype,
		Filename: "missing.mp3",
	}
	_, err := p.packageAudio(gone)
	var sysErr *domain.SystemError
	if !errors.As(err, &sysErr) {
		t.Fatalf("expected SystemError, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatal("read-back failure must not leave a registered token")
	}
}

func TestRunCanceledBeforeAcquire(t *testing.T) {
	p, _, _, _ := newTestPipeline(t, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, domain.ExtractionRequest{Source: domain.Base64Source{Data: "x"}})
	var sysErr *domain.SystemError
	if !errors.As(err, &sysErr) {
		t.Fatalf("expected SystemError for canceled acquire, got %v", err)
	}
}
