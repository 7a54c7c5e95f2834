package domain

import (
	"errors"
	"fmt"
)

// InputErrorKind classifies client-caused failures while resolving the
// request source.
type InputErrorKind string

const (
	MissingSource   InputErrorKind = "missing_source"
	AmbiguousSource InputErrorKind = "ambiguous_source"
	FetchFailure    InputErrorKind = "fetch_failure"
	DecodeFailure   InputErrorKind = "decode_failure"
)

// InputError reports that the request source could not be resolved into a
// staged video.
type InputError struct {
	Kind InputErrorKind
	Err  error
}

func (e *InputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("input: %s", e.Kind)
	}
	return fmt.Sprintf("input: %s: %v", e.Kind, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ExtractionErrorKind classifies failures of the media tool invocation.
type ExtractionErrorKind string

const (
	UnsupportedFormat ExtractionErrorKind = "unsupported_format"
	CorruptMedia      ExtractionErrorKind = "corrupt_media"
	ToolFailure       ExtractionErrorKind = "tool_failure"
)

// ExtractionError reports that a staged video could not be turned into an
// audio artifact.
type ExtractionError struct {
	Kind ExtractionErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract: %s", e.Kind)
	}
	return fmt.Sprintf("extract: %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrNotFound is returned when a download token is unknown or expired.
var ErrNotFound = errors.New("artifact not found")

// SystemError marks server-side faults (disk exhaustion, missing external
// tool). Fatal to the request, never retried, never crashes the process.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string { return fmt.Sprintf("system: %v", e.Err) }

func (e *SystemError) Unwrap() error { return e.Err }
