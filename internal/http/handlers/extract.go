package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"audio-extractor/internal/domain"
)

type extractAudioRequest struct {
	URL        string `json:"url"`
	Base64Data string `json:"base64_data"`
	Filename   string `json:"filename"`
}

// ExtractAudio handles POST /extract-audio.
func (a *App) ExtractAudio(w http.ResponseWriter, r *http.Request) {
	var body extractAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}

	req, err := domain.ParseRequest(body.URL, body.Base64Data, body.Filename)
	if err != nil {
		a.respondError(w, err)
		return
	}

	resp, err := a.Pipeline.Run(r.Context(), req)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.json(w, http.StatusOK, resp)
}

// respondError maps the component error taxonomy onto HTTP status codes.
func (a *App) respondError(w http.ResponseWriter, err error) {
	var inputErr *domain.InputError
	var extractErr *domain.ExtractionError
	var sysErr *domain.SystemError

	switch {
	case errors.As(err, &inputErr):
		code := http.StatusBadRequest
		if inputErr.Kind == domain.FetchFailure {
			code = http.StatusBadGateway
			if errors.Is(inputErr.Err, context.DeadlineExceeded) {
				code = http.StatusGatewayTimeout
			}
		}
		a.error(w, code, string(inputErr.Kind), inputErr.Error())
	case errors.As(err, &extractErr):
		code := http.StatusBadGateway
		switch {
		case extractErr.Kind == domain.UnsupportedFormat, extractErr.Kind == domain.CorruptMedia:
			code = http.StatusUnprocessableEntity
		case errors.Is(extractErr.Err, context.DeadlineExceeded):
			code = http.StatusGatewayTimeout
		}
		a.error(w, code, string(extractErr.Kind), extractErr.Error())
	case errors.As(err, &sysErr):
		a.Log.Error().Err(err).Msg("request failed with system error")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	default:
		a.Log.Error().Err(err).Msg("request failed with unclassified error")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
