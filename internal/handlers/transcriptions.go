package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"voice-journal/backend/internal/audio"
	"voice-journal/backend/internal/stt"
)

type transcriptionRequest struct {
	AudioURI string `json:"audio_uri"`
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Backend  string `json:"backend,omitempty"`
	AudioURI string `json:"audio_uri"`
	Duration int    `json:"duration,omitempty"`
	Failed   bool   `json:"failed"`
	Error    string `json:"error,omitempty"`
}

// Transcribe accepts either {"audio_uri"} naming a stored recording or a
// multipart upload in the "audio" field. A failed transcription still
// answers 200 with the placeholder text so the client can fall back to
// typing.
func (a *API) Transcribe(w http.ResponseWriter, r *http.Request) {
	var (
		path string
		resp transcriptionResponse
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, _, err := r.FormFile("audio")
		if err != nil {
			writeError(w, http.StatusBadRequest, "audio file is required")
			return
		}
		defer file.Close()
		duration, _ := strconv.Atoi(r.FormValue("duration"))
		recording, err := a.Recorder.Save(file, duration)
		if err != nil {
			logger(r).Error("save upload", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store recording")
			return
		}
		path = recording.Path
		resp.AudioURI = recording.URI
		resp.Duration = recording.Duration
	} else {
		var req transcriptionRequest
		if err := readJSON(r, &req); err != nil || strings.TrimSpace(req.AudioURI) == "" {
			writeError(w, http.StatusBadRequest, "audio_uri is required")
			return
		}
		resolved, err := a.Recorder.Resolve(req.AudioURI)
		if err != nil {
			if errors.Is(err, audio.ErrOutsideAudioDir) {
				writeError(w, http.StatusBadRequest, "audio_uri must name a stored recording")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid audio_uri")
			return
		}
		path = resolved
		resp.AudioURI = req.AudioURI
	}

	result, err := a.STT.Transcribe(r.Context(), path)
	if err != nil {
		logger(r).Warn("transcription failed", "audio_uri", resp.AudioURI, "error", err)
		resp.Text = stt.Placeholder
		resp.Failed = true
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Text = result.Text
	resp.Backend = result.Backend
	writeJSON(w, http.StatusOK, resp)
}
