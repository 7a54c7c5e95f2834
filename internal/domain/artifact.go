package domain

import "time"

// AudioMimetype is the mimetype of every artifact the service produces.
const AudioMimetype = "audio/mp3"

// StagedVideo is a request's input video materialized on local disk. It is
// created by the resolver, handed to the extractor, and never survives past
// extraction's return.
type StagedVideo struct {
	Path             string
	OriginalFilename string
	SizeBytes        int64
	CreatedAt        time.Time
}

// ExtractedAudio is a finished artifact on disk. The packager owns the file
// until the response is built, then the registry takes over until expiry.
type ExtractedAudio struct {
	Path      string
	Mimetype  string
	Filename  string
	CreatedAt time.Time
}

// ExtractionResponse is the dual-mode result: a URL minting access to the
// artifact for the retention window, and the same bytes inline.
type ExtractionResponse struct {
	DownloadURL string `json:"download_url"`
	Base64Data  string `json:"base64_data"`
	Mimetype    string `json:"mimetype"`
	Filename    string `json:"filename"`
}
