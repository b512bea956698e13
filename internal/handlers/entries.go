package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"voice-journal/backend/internal/audio"
	"voice-journal/backend/internal/models"
)

func (a *API) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := a.Journal.List(ctx, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "failed to list entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "limit": limit, "offset": offset})
}

func (a *API) SearchEntries(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := a.Journal.Search(ctx, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "failed to search entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "limit": limit, "offset": offset})
}

func (a *API) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req models.NewEntry
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entry, err := a.Journal.Create(ctx, req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) GetEntry(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entry, err := a.Journal.Get(ctx, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load entry")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) UpdateEntry(w http.ResponseWriter, r *http.Request, id string) {
	var req models.EntryUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entry, err := a.Journal.Update(ctx, id, req)
	if err != nil {
		writeServiceError(w, r, err, "failed to update entry")
		return
	}
	if req.Text != nil && a.Analyses != nil {
		_ = a.Analyses.Delete(ctx, id)
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) DeleteEntry(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.Journal.Delete(ctx, id); err != nil {
		writeServiceError(w, r, err, "failed to delete entry")
		return
	}
	if a.Analyses != nil {
		_ = a.Analyses.Delete(ctx, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// EntryAudio streams the recording with Range support. Remote recordings
// are redirected to their origin.
func (a *API) EntryAudio(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entry, err := a.Journal.Get(ctx, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load entry")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	file, info, err := a.Recorder.Open(ctx, entry.AudioURI)
	switch {
	case errors.Is(err, audio.ErrOutsideAudioDir) && isRemote(entry.AudioURI):
		http.Redirect(w, r, entry.AudioURI, http.StatusFound)
		return
	case err != nil:
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}
	defer file.Close()
	w.Header().Set("Content-Type", "audio/mp4")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

// EntryAnalysis returns the cached analysis of an entry, computing and
// caching it on a miss.
func (a *API) EntryAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	entry, err := a.Journal.Get(ctx, id)
	cancel()
	if err != nil {
		writeServiceError(w, r, err, "failed to load entry")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	if a.Analyses != nil {
		cached, err := a.Analyses.Get(r.Context(), id)
		if err != nil {
			logger(r).Warn("read cached analysis", "entry_id", id, "error", err)
		}
		if cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	ctx, cancel = context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()
	analysis := a.Analyzer.Analyze(ctx, entry.Text)
	if a.Analyses != nil {
		if err := a.Analyses.Set(ctx, id, analysis); err != nil {
			logger(r).Warn("cache analysis", "entry_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, analysis)
}

func isRemote(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}
