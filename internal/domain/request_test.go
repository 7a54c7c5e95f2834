package domain

import (
	"errors"
	"testing"
)

func TestParseRequestPicksVariant(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		data     string
		wantKind InputErrorKind
		wantURL  bool
	}{
		{name: "url only", url: "https://example.com/v.mp4", wantURL: true},
		{name: "base64 only", data: "aGVsbG8="},
		{name: "neither", wantKind: MissingSource},
		{name: "both", url: "https://example.com/v.mp4", data: "aGVsbG8=", wantKind: AmbiguousSource},
		{name: "whitespace url is missing", url: "   ", wantKind: MissingSource},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseRequest(tc.url, tc.data, "clip.mp4")
			if tc.wantKind != "" {
				var inputErr *InputError
				if !errors.As(err, &inputErr) {
					t.Fatalf("expected InputError, got %v", err)
				}
				if inputErr.Kind != tc.wantKind {
					t.Fatalf("kind = %s, want %s", inputErr.Kind, tc.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequest returned error: %v", err)
			}
			if _, ok := req.Source.(URLSource); ok != tc.wantURL {
				t.Fatalf("URLSource = %v, want %v (source %#v)", ok, tc.wantURL, req.Source)
			}
			if req.Filename != "clip.mp4" {
				t.Fatalf("Filename = %q, want clip.mp4", req.Filename)
			}
		})
	}
}
