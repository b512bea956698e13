package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"voice-journal/backend/internal/audio"
	"voice-journal/backend/internal/auth"
	"voice-journal/backend/internal/cache"
	"voice-journal/backend/internal/journal"
	"voice-journal/backend/internal/llm"
	"voice-journal/backend/internal/models"
	"voice-journal/backend/internal/observability"
	"voice-journal/backend/internal/stt"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxBodyBytes    = 1 << 20
	maxUploadBytes  = 50 << 20
)

type Analyzer interface {
	Analyze(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis
	AnalyzeDetailed(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*stt.Result, error)
}

type HealthReporter interface {
	Snapshot() []llm.ProviderHealth
}

type API struct {
	Journal   *journal.Service
	Analyzer  Analyzer
	Analyses  cache.AnalysisCache
	Recorder  *audio.Recorder
	STT       Transcriber
	Auth      *auth.Service
	Pairing   *auth.Pairing
	Health    HealthReporter
	PublicURL string
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps journal errors onto status codes: validation 400,
// missing 404, anything else 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var validation *journal.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "validation failed",
			"problems": validation.Problems,
		})
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
	default:
		logger(r).Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message)
	}
}

func readJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parsePagination(r *http.Request) (int, int) {
	limit := defaultPageSize
	offset := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 && parsed <= maxPageSize {
			limit = parsed
		}
	}
	if value := r.URL.Query().Get("offset"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// ParseID accepts a trimmed, non-empty path segment.
func ParseID(pathPart string) (string, bool) {
	id := strings.TrimSpace(pathPart)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return "", false
	}
	return id, true
}

func logger(r *http.Request) *slog.Logger {
	return observability.LoggerFromContext(r.Context())
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
