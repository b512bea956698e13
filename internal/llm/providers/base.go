package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	"voice-journal/backend/internal/llm/contract"
)

type Retrier struct {
	Attempts int
	Delay    time.Duration
}

// Do retries fn with exponential backoff. A loading model is not retried:
// the caller has other backends to try.
func (r Retrier) Do(ctx context.Context, fn func() error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := r.Delay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, contract.ErrModelLoading) || i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("retry failed")
	}
	return lastErr
}

// meter keeps per-provider totals. Providers are called concurrently; the
// record of a single call goes to the caller through its context.
type meter struct {
	mu    sync.Mutex
	stats contract.UsageStats
}

func (m *meter) capture(ctx context.Context, config *contract.ProviderConfig, feature string, start time.Time, inputTokens, outputTokens int) {
	latency := time.Since(start)
	record := contract.UsageRecord{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		Latency:      latency,
		Success:      true,
		Feature:      feature,
	}
	contract.ReportUsage(ctx, record)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalRequests++
	m.stats.SuccessfulRequests++
	m.stats.TotalCost += record.TotalCost(config.CostPer1KInput, config.CostPer1KOutput)
	m.stats.AverageLatency = averageLatency(m.stats.AverageLatency, latency, m.stats.SuccessfulRequests)
}

func (m *meter) fail(ctx context.Context, feature string, start time.Time, err error) {
	contract.ReportUsage(ctx, contract.UsageRecord{Latency: time.Since(start), Feature: feature, ErrorMessage: err.Error()})
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalRequests++
	m.stats.FailedRequests++
}

func (m *meter) usage() *contract.UsageStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.stats
	return &stats
}

func healthResult(start time.Time, err error) (*contract.HealthCheckResult, error) {
	result := &contract.HealthCheckResult{
		Status:    "ok",
		Latency:   time.Since(start),
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		result.Status = "error"
		result.ErrorMessage = err.Error()
	}
	return result, err
}
