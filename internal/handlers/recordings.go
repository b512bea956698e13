package handlers

import (
	"errors"
	"io"
	"net/http"

	"voice-journal/backend/internal/audio"
)

type stopRecordingRequest struct {
	Duration *int `json:"duration"`
}

func (a *API) StartRecording(w http.ResponseWriter, r *http.Request) {
	session, err := a.Recorder.Start()
	if err != nil {
		logger(r).Error("start recording", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start recording")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// AppendRecording writes the request body to the end of the session file.
func (a *API) AppendRecording(w http.ResponseWriter, r *http.Request, id string) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	written, err := a.Recorder.Write(id, body)
	if err != nil {
		a.recordingError(w, r, err, "failed to write recording")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "written": written})
}

// StopRecording finalizes the session. Without a duration the server's wall
// time is used.
func (a *API) StopRecording(w http.ResponseWriter, r *http.Request, id string) {
	var req stopRecordingRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	duration := -1
	if req.Duration != nil {
		if *req.Duration < 0 {
			writeError(w, http.StatusBadRequest, "duration must not be negative")
			return
		}
		duration = *req.Duration
	}
	recording, err := a.Recorder.Stop(id, duration)
	if err != nil {
		a.recordingError(w, r, err, "failed to stop recording")
		return
	}
	writeJSON(w, http.StatusOK, recording)
}

func (a *API) AbortRecording(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.Recorder.Abort(id); err != nil {
		a.recordingError(w, r, err, "failed to abort recording")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) recordingError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, audio.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "recording session not found")
		return
	}
	logger(r).Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, message)
}
