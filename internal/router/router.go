package router

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"voice-journal/backend/internal/auth"
	"voice-journal/backend/internal/handlers"
	"voice-journal/backend/internal/middleware"
	"voice-journal/backend/internal/observability"
	"voice-journal/backend/internal/realtime"
)

const apiPrefix = "/api/v1"

// RequestObserver records one served request per route pattern.
type RequestObserver interface {
	RequestServed(route string, status int)
}

type Router struct {
	api      *handlers.API
	auth     *auth.Service
	limiter  *middleware.RateLimiter
	origin   string
	hub      *realtime.Hub
	live     realtime.LiveAnalysis
	metrics  http.Handler
	observer RequestObserver
}

type Options struct {
	Limiter  *middleware.RateLimiter
	Origin   string
	Hub      *realtime.Hub
	Live     realtime.LiveAnalysis
	Metrics  http.Handler
	Observer RequestObserver
}

func New(api *handlers.API, authService *auth.Service, opts Options) *Router {
	return &Router{
		api:      api,
		auth:     authService,
		limiter:  opts.Limiter,
		origin:   opts.Origin,
		hub:      opts.Hub,
		live:     opts.Live,
		metrics:  opts.Metrics,
		observer: opts.Observer,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack is needed by the websocket upgrader.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	r = r.WithContext(observability.WithRequestID(r.Context(), requestID))

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	route := rt.serve(rec, r)
	if rt.observer != nil {
		rt.observer.RequestServed(route, rec.status)
	}
}

// serve dispatches the request and returns the route pattern it matched.
func (rt *Router) serve(w http.ResponseWriter, r *http.Request) string {
	if middleware.HandleCORS(w, r, rt.origin) {
		return "preflight"
	}
	middleware.SecurityHeaders(w)

	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	if requiresAuth(path) {
		device, err := middleware.Authenticate(r, rt.auth)
		if err != nil {
			writeStatus(w, http.StatusUnauthorized, "unauthorized")
			return "unauthorized"
		}
		if rt.limiter != nil && !rt.limiter.Allow("device:"+device.ID) {
			writeStatus(w, http.StatusTooManyRequests, "rate limit exceeded")
			return "rate_limited"
		}
		if err := middleware.ValidateCSRF(r, device); err != nil {
			writeStatus(w, http.StatusForbidden, "invalid csrf token")
			return "csrf"
		}
		r = r.WithContext(auth.WithDevice(r.Context(), device))
	} else if rt.limiter != nil {
		if !rt.limiter.Allow(middleware.ClientKey(r)) {
			writeStatus(w, http.StatusTooManyRequests, "rate limit exceeded")
			return "rate_limited"
		}
	}

	switch {
	case path == "/healthz":
		if r.Method == http.MethodGet {
			handlers.Healthz(w, r)
			return path
		}
	case path == "/metrics":
		if r.Method == http.MethodGet && rt.metrics != nil {
			rt.metrics.ServeHTTP(w, r)
			return path
		}
	case path == apiPrefix+"/auth/pair":
		if r.Method == http.MethodPost {
			rt.api.Pair(w, r)
			return path
		}
	case path == apiPrefix+"/auth/pairing-qr":
		if r.Method == http.MethodGet {
			rt.api.PairingQR(w, r)
			return path
		}
	case path == apiPrefix+"/ws":
		if r.Method == http.MethodGet && rt.hub != nil {
			device, _ := auth.DeviceFromContext(r.Context())
			realtime.ServeWS(w, r, rt.hub, device.ID, rt.live)
			return path
		}
	case path == apiPrefix+"/moods":
		if r.Method == http.MethodGet {
			rt.api.Moods(w, r)
			return path
		}
	case path == apiPrefix+"/trends":
		if r.Method == http.MethodGet {
			rt.api.Trends(w, r)
			return path
		}
	case path == apiPrefix+"/analysis":
		if r.Method == http.MethodPost {
			rt.api.AnalyzeText(w, r)
			return path
		}
	case path == apiPrefix+"/insights":
		if r.Method == http.MethodPost {
			rt.api.Insights(w, r)
			return path
		}
	case path == apiPrefix+"/transcriptions":
		if r.Method == http.MethodPost {
			rt.api.Transcribe(w, r)
			return path
		}
	case path == apiPrefix+"/providers/health":
		if r.Method == http.MethodGet {
			rt.api.ProviderHealth(w, r)
			return path
		}
	case path == apiPrefix+"/entries":
		switch r.Method {
		case http.MethodGet:
			rt.api.ListEntries(w, r)
			return path
		case http.MethodPost:
			rt.api.CreateEntry(w, r)
			return path
		}
	case path == apiPrefix+"/entries/search":
		if r.Method == http.MethodGet {
			rt.api.SearchEntries(w, r)
			return path
		}
	case strings.HasPrefix(path, apiPrefix+"/entries/"):
		segments := strings.Split(strings.TrimPrefix(path, apiPrefix+"/entries/"), "/")
		id, ok := handlers.ParseID(segments[0])
		if !ok {
			break
		}
		switch {
		case len(segments) == 1:
			switch r.Method {
			case http.MethodGet:
				rt.api.GetEntry(w, r, id)
				return apiPrefix + "/entries/{id}"
			case http.MethodPatch:
				rt.api.UpdateEntry(w, r, id)
				return apiPrefix + "/entries/{id}"
			case http.MethodDelete:
				rt.api.DeleteEntry(w, r, id)
				return apiPrefix + "/entries/{id}"
			}
		case len(segments) == 2 && segments[1] == "audio" && r.Method == http.MethodGet:
			rt.api.EntryAudio(w, r, id)
			return apiPrefix + "/entries/{id}/audio"
		case len(segments) == 2 && segments[1] == "analysis" && r.Method == http.MethodGet:
			rt.api.EntryAnalysis(w, r, id)
			return apiPrefix + "/entries/{id}/analysis"
		}
	case path == apiPrefix+"/recordings":
		if r.Method == http.MethodPost {
			rt.api.StartRecording(w, r)
			return path
		}
	case strings.HasPrefix(path, apiPrefix+"/recordings/"):
		segments := strings.Split(strings.TrimPrefix(path, apiPrefix+"/recordings/"), "/")
		id, ok := handlers.ParseID(segments[0])
		if !ok {
			break
		}
		switch {
		case len(segments) == 1 && r.Method == http.MethodPut:
			rt.api.AppendRecording(w, r, id)
			return apiPrefix + "/recordings/{id}"
		case len(segments) == 1 && r.Method == http.MethodDelete:
			rt.api.AbortRecording(w, r, id)
			return apiPrefix + "/recordings/{id}"
		case len(segments) == 2 && segments[1] == "stop" && r.Method == http.MethodPost:
			rt.api.StopRecording(w, r, id)
			return apiPrefix + "/recordings/{id}/stop"
		}
	}

	writeStatus(w, http.StatusNotFound, "not found")
	return "not_found"
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("{\"error\":\"" + message + "\"}"))
}

// requiresAuth covers every API route except pairing.
func requiresAuth(path string) bool {
	if !strings.HasPrefix(path, apiPrefix+"/") {
		return false
	}
	return path != apiPrefix+"/auth/pair"
}
