package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"voice-journal/backend/internal/models"
)

// analysisTimeout covers the remote classifier and generator tiers. Both
// degrade to local output when it elapses.
const analysisTimeout = 20 * time.Second

type analyzeRequest struct {
	Text string `json:"text"`
}

func (a *API) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	a.analyze(w, r, false)
}

func (a *API) Insights(w http.ResponseWriter, r *http.Request) {
	a.analyze(w, r, true)
}

func (a *API) analyze(w http.ResponseWriter, r *http.Request, detailed bool) {
	var req analyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	var analysis *models.ComprehensiveMoodAnalysis
	if detailed {
		analysis = a.Analyzer.AnalyzeDetailed(ctx, req.Text)
	} else {
		analysis = a.Analyzer.Analyze(ctx, req.Text)
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (a *API) Moods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"moods": models.MoodConfigs()})
}

func (a *API) Trends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	trends, err := a.Journal.Trends(ctx)
	if err != nil {
		writeServiceError(w, r, err, "failed to compute trends")
		return
	}
	writeJSON(w, http.StatusOK, trends)
}
