package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-journal/backend/internal/models"
)

// Metrics uses its own registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	AnalysisRequests     *prometheus.CounterVec
	InsightTiers         *prometheus.CounterVec
	ClassifierFailures   *prometheus.CounterVec
	Transcriptions       *prometheus.CounterVec
	ProviderLatency      *prometheus.HistogramVec
	WebSocketConnections prometheus.Gauge
	HTTPRequests         *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		Registry: registry,
		AnalysisRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_analysis_total",
			Help: "Completed mood analyses by sentiment and whether any classifier answered",
		}, []string{"sentiment", "classified"}),
		InsightTiers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_insight_tier_total",
			Help: "Insight tiers that produced output",
		}, []string{"tier"}),
		ClassifierFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_classifier_failures_total",
			Help: "Classifier backend calls that returned nothing usable",
		}, []string{"backend"}),
		Transcriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_transcriptions_total",
			Help: "Transcription attempts by backend and outcome",
		}, []string{"backend", "outcome"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "journal_provider_request_duration_seconds",
			Help:    "Remote provider call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider", "feature", "success"}),
		WebSocketConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journal_websocket_connections_active",
			Help: "Open websocket connections",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_http_requests_total",
			Help: "HTTP requests by route and status class",
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AnalysisCompleted(sentiment models.Sentiment, classified bool) {
	m.AnalysisRequests.WithLabelValues(string(sentiment), strconv.FormatBool(classified)).Inc()
}

func (m *Metrics) InsightTierUsed(tier string) {
	m.InsightTiers.WithLabelValues(tier).Inc()
}

func (m *Metrics) ClassifierFailed(backend string) {
	m.ClassifierFailures.WithLabelValues(backend).Inc()
}

func (m *Metrics) TranscriptionFinished(backend, outcome string) {
	m.Transcriptions.WithLabelValues(backend, outcome).Inc()
}

func (m *Metrics) ProviderCall(provider, feature string, latency time.Duration, success bool) {
	m.ProviderLatency.WithLabelValues(provider, feature, strconv.FormatBool(success)).Observe(latency.Seconds())
}

func (m *Metrics) ConnectionOpened() { m.WebSocketConnections.Inc() }

func (m *Metrics) ConnectionClosed() { m.WebSocketConnections.Dec() }

// RequestServed counts requests by route pattern and status class.
func (m *Metrics) RequestServed(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status/100)+"xx").Inc()
}
