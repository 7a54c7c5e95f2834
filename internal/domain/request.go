package domain

import "strings"

// Source is the resolved input variant of an extraction request. Exactly one
// concrete type backs every request that enters the pipeline; the decision is
// made once, at parse time.
type Source interface {
	sourceKind() string
}

// URLSource points at a remote video to be fetched over HTTP(S).
type URLSource struct {
	URL string
}

// Base64Source carries the video inline. Data may include a
// "data:<mime>;base64," style prefix, which is stripped before decoding.
type Base64Source struct {
	Data string
}

func (URLSource) sourceKind() string    { return "url" }
func (Base64Source) sourceKind() string { return "base64" }

// ExtractionRequest is a validated request ready for the pipeline.
type ExtractionRequest struct {
	Source   Source
	Filename string
}

// ParseRequest validates the raw request fields and picks the source variant.
// Supplying neither or both sources is an input error; there is no precedence
// between them.
func ParseRequest(url, base64Data, filename string) (ExtractionRequest, error) {
	url = strings.TrimSpace(url)
	hasURL := url != ""
	hasData := strings.TrimSpace(base64Data) != ""

	switch {
	case !hasURL && !hasData:
		return ExtractionRequest{}, &InputError{Kind: MissingSource}
	case hasURL && hasData:
		return ExtractionRequest{}, &InputError{Kind: AmbiguousSource}
	}

	req := ExtractionRequest{Filename: strings.TrimSpace(filename)}
	if hasURL {
		req.Source = URLSource{URL: url}
	} else {
		req.Source = Base64Source{Data: base64Data}
	}
	return req, nil
}
