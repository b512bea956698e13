package llm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	statusOK    = "ok"
	statusSlow  = "slow"
	statusError = "error"

	defaultFailureThreshold = 3
	slowThreshold           = 3 * time.Second
	checkTimeout            = 30 * time.Second
)

type HealthStore interface {
	InsertHealth(ctx context.Context, provider string, result *HealthCheckResult) error
	ConsecutiveHealthFailures(ctx context.Context, provider string) (int, error)
}

type ProviderHealth struct {
	Provider            string        `json:"provider"`
	Model               string        `json:"model"`
	Status              string        `json:"status"`
	Healthy             bool          `json:"healthy"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	Latency             time.Duration `json:"latency"`
	LastError           string        `json:"last_error,omitempty"`
	LastChecked         time.Time     `json:"last_checked"`
}

// HealthMonitor checks providers periodically. A provider is unhealthy
// after Threshold consecutive failed checks and recovers on the next
// successful one.
type HealthMonitor struct {
	Router    *Router
	Store     HealthStore
	Threshold int
	Logger    *slog.Logger

	mu    sync.RWMutex
	state map[string]*ProviderHealth
}

func NewHealthMonitor(router *Router, store HealthStore, logger *slog.Logger) *HealthMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthMonitor{
		Router:    router,
		Store:     store,
		Threshold: defaultFailureThreshold,
		Logger:    logger,
		state:     map[string]*ProviderHealth{},
	}
}

func (h *HealthMonitor) Healthy(key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.state[key]
	return !ok || state.Healthy
}

// Snapshot returns the last known state of every checked provider.
func (h *HealthMonitor) Snapshot() []ProviderHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ProviderHealth, 0, len(h.state))
	for _, state := range h.state {
		out = append(out, *state)
	}
	return out
}

// Restore seeds failure counts from persisted history so a restart does not
// forget a provider that was already failing.
func (h *HealthMonitor) Restore(ctx context.Context) {
	if h.Store == nil {
		return
	}
	providers, err := h.Router.Providers(ctx)
	if err != nil {
		return
	}
	for _, provider := range providers {
		failures, err := h.Store.ConsecutiveHealthFailures(ctx, provider.Name())
		if err != nil || failures == 0 {
			continue
		}
		config := provider.GetConfig()
		h.mu.Lock()
		h.state[config.Key()] = &ProviderHealth{
			Provider:            config.ProviderName,
			Model:               config.ModelName,
			Status:              statusError,
			ConsecutiveFailures: failures,
			Healthy:             failures < h.threshold(),
		}
		h.mu.Unlock()
	}
}

func (h *HealthMonitor) CheckAll(ctx context.Context) {
	providers, err := h.Router.Providers(ctx)
	if err != nil {
		h.Logger.Error("list providers for health check", "error", err)
		return
	}
	for _, provider := range providers {
		if ctx.Err() != nil {
			return
		}
		h.check(ctx, provider)
	}
}

func (h *HealthMonitor) check(ctx context.Context, provider Provider) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	result, err := provider.HealthCheck(ctx)
	if result == nil {
		result = &HealthCheckResult{Latency: time.Since(start), Timestamp: time.Now().UTC()}
	}
	switch {
	case err != nil:
		result.Status = statusError
		result.ErrorMessage = err.Error()
	case result.Latency > slowThreshold:
		result.Status = statusSlow
	default:
		result.Status = statusOK
	}
	h.Observe(provider.GetConfig(), result)

	if h.Store != nil {
		if err := h.Store.InsertHealth(ctx, provider.Name(), result); err != nil {
			h.Logger.Warn("persist provider health", "provider", provider.Name(), "error", err)
		}
	}
}

// Observe folds one check result into the provider state.
func (h *HealthMonitor) Observe(config *ProviderConfig, result *HealthCheckResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := config.Key()
	state, ok := h.state[key]
	if !ok {
		state = &ProviderHealth{Provider: config.ProviderName, Model: config.ModelName, Healthy: true}
		h.state[key] = state
	}
	state.Status = result.Status
	state.Latency = result.Latency
	state.LastChecked = result.Timestamp
	state.LastError = result.ErrorMessage
	if result.Status == statusError {
		state.ConsecutiveFailures++
	} else {
		state.ConsecutiveFailures = 0
	}
	wasHealthy := state.Healthy
	state.Healthy = state.ConsecutiveFailures < h.threshold()
	if wasHealthy != state.Healthy {
		h.Logger.Warn("provider health changed", "provider", config.ProviderName, "model", config.ModelName, "healthy", state.Healthy)
	}
}

// Schedule registers the periodic check on s.
func (h *HealthMonitor) Schedule(ctx context.Context, s gocron.Scheduler, interval time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { h.CheckAll(ctx) }),
		gocron.WithName("provider-health"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}

func (h *HealthMonitor) threshold() int {
	if h.Threshold > 0 {
		return h.Threshold
	}
	return defaultFailureThreshold
}
