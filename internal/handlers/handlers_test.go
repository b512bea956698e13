package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"voice-journal/backend/internal/audio"
	"voice-journal/backend/internal/auth"
	"voice-journal/backend/internal/cache"
	"voice-journal/backend/internal/journal"
	"voice-journal/backend/internal/llm"
	"voice-journal/backend/internal/models"
	"voice-journal/backend/internal/observability"
	"voice-journal/backend/internal/stt"
)

type fakeAnalyzer struct {
	calls atomic.Int32
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis {
	f.calls.Add(1)
	return &models.ComprehensiveMoodAnalysis{
		PrimaryEmotion:   models.EmotionAnalysis{Emotion: models.MoodHappy, Confidence: 0.8, Intensity: models.IntensityFor(0.8)},
		OverallSentiment: models.SentimentPositive,
		Summary:          "quick",
		Insights:         []string{"a"},
	}
}

func (f *fakeAnalyzer) AnalyzeDetailed(ctx context.Context, text string) *models.ComprehensiveMoodAnalysis {
	analysis := f.Analyze(ctx, text)
	analysis.Summary = "detailed"
	return analysis
}

type fakeTranscriber struct {
	text string
	err  error
	path string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*stt.Result, error) {
	f.path = audioPath
	if f.err != nil {
		return nil, f.err
	}
	return &stt.Result{Text: f.text, Backend: "fake"}, nil
}

type fakeHealth []llm.ProviderHealth

func (f fakeHealth) Snapshot() []llm.ProviderHealth { return f }

func newTestAPI(t *testing.T) (*API, *fakeAnalyzer, *fakeTranscriber) {
	t.Helper()
	store, err := journal.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	recorder, err := audio.NewRecorder(t.TempDir(), observability.Discard())
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	authService, err := auth.NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	pairing, err := auth.NewPairing("123456")
	if err != nil {
		t.Fatalf("pairing: %v", err)
	}
	analyzer := &fakeAnalyzer{}
	transcriber := &fakeTranscriber{text: "hello from the recording"}
	api := &API{
		Journal:   journal.NewService(store, nil, nil, observability.Discard()),
		Analyzer:  analyzer,
		Analyses:  cache.NewMemoryCache(time.Minute),
		Recorder:  recorder,
		STT:       transcriber,
		Auth:      authService,
		Pairing:   pairing,
		Health:    fakeHealth{{Provider: "openai", Model: "gpt-4o-mini", Status: "ok", Healthy: true}},
		PublicURL: "https://journal.example.com",
	}
	return api, analyzer, transcriber
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func createEntry(t *testing.T, api *API, text string) models.JournalEntry {
	t.Helper()
	rec := httptest.NewRecorder()
	api.CreateEntry(rec, jsonRequest(http.MethodPost, "/api/v1/entries", map[string]any{
		"audio_uri": "file:///tmp/a.m4a",
		"text":      text,
		"mood":      "happy",
		"duration":  12,
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[models.JournalEntry](t, rec)
}

func TestEntryLifecycle(t *testing.T) {
	api, _, _ := newTestAPI(t)
	entry := createEntry(t, api, "Walked by the river")
	if entry.ID == "" || entry.Mood != models.MoodHappy || entry.Duration != 12 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	rec := httptest.NewRecorder()
	api.GetEntry(rec, httptest.NewRequest(http.MethodGet, "/", nil), entry.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.UpdateEntry(rec, jsonRequest(http.MethodPatch, "/", map[string]any{"mood": "calm"}), entry.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[models.JournalEntry](t, rec)
	if updated.Mood != models.MoodCalm || updated.Text != entry.Text {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatalf("expected updated_at after created_at")
	}

	rec = httptest.NewRecorder()
	api.DeleteEntry(rec, httptest.NewRequest(http.MethodDelete, "/", nil), entry.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.GetEntry(rec, httptest.NewRequest(http.MethodGet, "/", nil), entry.ID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rec.Code)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	api, _, _ := newTestAPI(t)
	tests := []struct {
		name string
		body any
		code int
	}{
		{"blank text", map[string]any{"audio_uri": "file:///a.m4a", "text": "  ", "mood": "happy"}, http.StatusBadRequest},
		{"bad mood", map[string]any{"audio_uri": "file:///a.m4a", "text": "x", "mood": "bored"}, http.StatusBadRequest},
		{"bad uri", map[string]any{"audio_uri": "ftp://a", "text": "x", "mood": "sad"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"audio_uri": "file:///a.m4a", "text": "x", "mood": "sad", "tags": []string{}}, http.StatusBadRequest},
		{"valid", map[string]any{"audio_uri": "https://cdn.example.com/a.m4a", "text": "x", "mood": "sad"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			api.CreateEntry(rec, jsonRequest(http.MethodPost, "/api/v1/entries", tt.body))
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateMissingEntry(t *testing.T) {
	api, _, _ := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.UpdateEntry(rec, jsonRequest(http.MethodPatch, "/", map[string]any{"text": "new"}), "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListAndSearch(t *testing.T) {
	api, _, _ := newTestAPI(t)
	createEntry(t, api, "Coffee with Sam")
	createEntry(t, api, "Long day at WORK")
	createEntry(t, api, "work was fine")

	rec := httptest.NewRecorder()
	api.ListEntries(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entries?limit=2", nil))
	list := decode[struct {
		Entries []models.JournalEntry `json:"entries"`
	}](t, rec)
	if len(list.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list.Entries))
	}

	rec = httptest.NewRecorder()
	api.SearchEntries(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entries/search?q=work", nil))
	found := decode[struct {
		Entries []models.JournalEntry `json:"entries"`
	}](t, rec)
	if len(found.Entries) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found.Entries))
	}
}

func TestEntryAnalysisIsCached(t *testing.T) {
	api, analyzer, _ := newTestAPI(t)
	entry := createEntry(t, api, "A good day")

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		api.EntryAnalysis(rec, httptest.NewRequest(http.MethodGet, "/", nil), entry.ID)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
	if got := analyzer.calls.Load(); got != 1 {
		t.Fatalf("expected one analysis, got %d", got)
	}

	rec := httptest.NewRecorder()
	api.EntryAnalysis(rec, httptest.NewRequest(http.MethodGet, "/", nil), "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing entry, got %d", rec.Code)
	}
}

func TestAnalyzeAndInsights(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.AnalyzeText(rec, jsonRequest(http.MethodPost, "/", map[string]string{"text": "I feel great"}))
	if got := decode[models.ComprehensiveMoodAnalysis](t, rec); got.Summary != "quick" {
		t.Fatalf("unexpected analysis: %+v", got)
	}

	rec = httptest.NewRecorder()
	api.Insights(rec, jsonRequest(http.MethodPost, "/", map[string]string{"text": "I feel great"}))
	if got := decode[models.ComprehensiveMoodAnalysis](t, rec); got.Summary != "detailed" {
		t.Fatalf("unexpected insights: %+v", got)
	}

	rec = httptest.NewRecorder()
	api.AnalyzeText(rec, jsonRequest(http.MethodPost, "/", map[string]string{"text": " "}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", rec.Code)
	}
}

func TestRecordingFlowAndPlayback(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.StartRecording(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d", rec.Code)
	}
	session := decode[struct {
		ID string `json:"id"`
	}](t, rec)

	for _, chunk := range []string{"abc", "defg"} {
		rec = httptest.NewRecorder()
		api.AppendRecording(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(chunk)), session.ID)
		if rec.Code != http.StatusOK {
			t.Fatalf("append: expected 200, got %d", rec.Code)
		}
	}

	rec = httptest.NewRecorder()
	api.StopRecording(rec, jsonRequest(http.MethodPost, "/", map[string]int{"duration": 42}), session.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	recording := decode[audio.Recording](t, rec)
	if recording.Size != 7 || recording.Duration != 42 {
		t.Fatalf("unexpected recording: %+v", recording)
	}

	rec = httptest.NewRecorder()
	api.AppendRecording(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader("x")), session.ID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("append after stop: expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.CreateEntry(rec, jsonRequest(http.MethodPost, "/", map[string]any{
		"audio_uri": recording.URI, "text": "recorded", "mood": "calm", "duration": 42,
	}))
	entry := decode[models.JournalEntry](t, rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Range", "bytes=3-")
	rec = httptest.NewRecorder()
	api.EntryAudio(rec, req, entry.ID)
	if rec.Code != http.StatusPartialContent || rec.Body.String() != "defg" {
		t.Fatalf("playback: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestEntryAudioRedirectsRemote(t *testing.T) {
	api, _, _ := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.CreateEntry(rec, jsonRequest(http.MethodPost, "/", map[string]any{
		"audio_uri": "https://cdn.example.com/a.m4a", "text": "remote", "mood": "calm",
	}))
	entry := decode[models.JournalEntry](t, rec)

	rec = httptest.NewRecorder()
	api.EntryAudio(rec, httptest.NewRequest(http.MethodGet, "/", nil), entry.ID)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "https://cdn.example.com/a.m4a" {
		t.Fatalf("expected redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAbortUnknownRecording(t *testing.T) {
	api, _, _ := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.AbortRecording(rec, httptest.NewRequest(http.MethodDelete, "/", nil), "nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTranscribeUpload(t *testing.T) {
	api, _, transcriber := newTestAPI(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, _ := form.CreateFormFile("audio", "clip.m4a")
	_, _ = part.Write([]byte("audio-bytes"))
	_ = form.WriteField("duration", "9")
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	api.Transcribe(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[transcriptionResponse](t, rec)
	if resp.Failed || resp.Text != "hello from the recording" || resp.Duration != 9 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(resp.AudioURI, "file://") || transcriber.path == "" {
		t.Fatalf("expected stored recording, got %+v", resp)
	}
}

func TestTranscribeFailureReturnsPlaceholder(t *testing.T) {
	api, _, transcriber := newTestAPI(t)
	recording, err := api.Recorder.Save(strings.NewReader("bytes"), 3)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	transcriber.err = stt.ErrTranscriptionTimeout

	rec := httptest.NewRecorder()
	api.Transcribe(rec, jsonRequest(http.MethodPost, "/", map[string]string{"audio_uri": recording.URI}))
	resp := decode[transcriptionResponse](t, rec)
	if rec.Code != http.StatusOK || !resp.Failed || resp.Text != stt.Placeholder {
		t.Fatalf("unexpected failure response: %d %+v", rec.Code, resp)
	}

	rec = httptest.NewRecorder()
	api.Transcribe(rec, jsonRequest(http.MethodPost, "/", map[string]string{"audio_uri": "file:///etc/passwd"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 outside audio dir, got %d", rec.Code)
	}
}

func TestPairing(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.Pair(rec, jsonRequest(http.MethodPost, "/", map[string]string{"code": "000000"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong code, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.Pair(rec, jsonRequest(http.MethodPost, "/", map[string]string{"code": "123456", "device_name": "phone"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[struct {
		Token     string `json:"token"`
		CSRFToken string `json:"csrf_token"`
	}](t, rec)
	device, err := api.Auth.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if device.Name != "phone" || device.CSRF != resp.CSRFToken {
		t.Fatalf("unexpected device: %+v", device)
	}

	rec = httptest.NewRecorder()
	api.PairingQR(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	qr := decode[map[string]string](t, rec)
	if !strings.HasPrefix(qr["qr_code"], "data:image/png;base64,") || !strings.Contains(qr["link"], "journal.example.com") {
		t.Fatalf("unexpected qr response: %v", qr)
	}
}

func TestPairingDisabled(t *testing.T) {
	api, _, _ := newTestAPI(t)
	api.Pairing, _ = auth.NewPairing("")
	rec := httptest.NewRecorder()
	api.Pair(rec, jsonRequest(http.MethodPost, "/", map[string]string{"code": "123456"}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestMoodsTrendsAndHealth(t *testing.T) {
	api, _, _ := newTestAPI(t)
	createEntry(t, api, "fine")

	rec := httptest.NewRecorder()
	api.Moods(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	moods := decode[struct {
		Moods []models.MoodConfig `json:"moods"`
	}](t, rec)
	if len(moods.Moods) != len(models.AllMoods) {
		t.Fatalf("expected %d moods, got %d", len(models.AllMoods), len(moods.Moods))
	}

	rec = httptest.NewRecorder()
	api.Trends(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	trends := decode[journal.Trends](t, rec)
	if trends.TotalEntries != 1 {
		t.Fatalf("expected one entry in trends, got %+v", trends)
	}

	rec = httptest.NewRecorder()
	api.ProviderHealth(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	health := decode[struct {
		Healthy int `json:"healthy"`
	}](t, rec)
	if health.Healthy != 1 {
		t.Fatalf("expected one healthy provider, got %d", health.Healthy)
	}
}
