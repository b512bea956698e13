package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-journal/backend/internal/auth"
	"voice-journal/backend/internal/handlers"
	"voice-journal/backend/internal/journal"
	"voice-journal/backend/internal/middleware"
	"voice-journal/backend/internal/models"
	"voice-journal/backend/internal/observability"
)

type routeRecorder struct {
	routes []string
}

func (r *routeRecorder) RequestServed(route string, status int) {
	r.routes = append(r.routes, route)
}

func newTestRouter(t *testing.T, limit int) (*Router, *routeRecorder) {
	t.Helper()
	store, err := journal.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	authService, err := auth.NewService("router-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	pairing, err := auth.NewPairing("4242")
	if err != nil {
		t.Fatalf("pairing: %v", err)
	}
	api := &handlers.API{
		Journal: journal.NewService(store, nil, nil, observability.Discard()),
		Auth:    authService,
		Pairing: pairing,
	}
	observer := &routeRecorder{}
	rt := New(api, authService, Options{
		Limiter:  middleware.NewRateLimiter(limit, time.Minute),
		Origin:   "http://localhost:8081",
		Observer: observer,
	})
	return rt, observer
}

func pair(t *testing.T, rt *Router) (string, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/pair", strings.NewReader(`{"code":"4242","device_name":"phone"}`))
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("pair: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Token, resp.CSRFToken
}

func TestRouterRequiresAuth(t *testing.T) {
	rt, _ := newTestRouter(t, 100)
	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/v1/entries", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/auth/pairing-qr", http.StatusUnauthorized},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.code {
			t.Fatalf("%s %s: expected %d, got %d", tt.method, tt.path, tt.code, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s: missing request id", tt.method, tt.path)
		}
	}
}

func TestRouterEntryRoutes(t *testing.T) {
	rt, observer := newTestRouter(t, 100)
	token, csrf := pair(t, rt)

	body := `{"audio_uri":"file:///a.m4a","text":"Morning run","mood":"excited","duration":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec = httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var entry models.JournalEntry
	if err := json.NewDecoder(rec.Body).Decode(&entry); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/entries/"+entry.ID+"/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/entries/search?q=run&token="+token, nil)
	rec = httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), entry.ID) {
		t.Fatalf("search: got %d %s", rec.Code, rec.Body.String())
	}

	last := observer.routes[len(observer.routes)-1]
	if last != "/api/v1/entries/search" {
		t.Fatalf("unexpected route label %q", last)
	}
	found := false
	for _, route := range observer.routes {
		if route == "/api/v1/entries/{id}" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected templated entry route in %v", observer.routes)
	}
}

func TestRouterRateLimitsPerDevice(t *testing.T) {
	rt, _ := newTestRouter(t, 2)
	token, _ := pair(t, rt)

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}
