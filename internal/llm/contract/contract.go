package contract

import (
	"context"
	"errors"
	"time"

	"voice-journal/backend/internal/models"
)

// ErrModelLoading is returned while a hosted model is still warming up. The
// caller should move on to the next backend instead of waiting.
var ErrModelLoading = errors.New("model is currently loading")

var ErrUnsupportedTask = errors.New("task not supported by provider")

type Task string

const (
	TaskClassification Task = "classification"
	TaskGeneration     Task = "generation"
)

type Provider interface {
	Name() string
	Classify(ctx context.Context, text string) ([]models.LabelScore, error)
	Generate(ctx context.Context, prompt string) (string, error)
	HealthCheck(ctx context.Context) (*HealthCheckResult, error)
	GetConfig() *ProviderConfig
	GetUsage(ctx context.Context) (*UsageStats, error)
}

type ProviderConfig struct {
	ProviderName      string
	APIKey            string
	ModelName         string
	BaseURL           string
	Temperature       float64
	MaxTokens         int
	CostPer1KInput    float64
	CostPer1KOutput   float64
	RequestsPerSecond float64
	Tasks             []Task
	// Lower values are tried first.
	Priority int
}

// Key identifies one provider/model pairing.
func (c *ProviderConfig) Key() string {
	return c.ProviderName + ":" + c.ModelName + ":" + c.BaseURL
}

func (c *ProviderConfig) Supports(task Task) bool {
	for _, t := range c.Tasks {
		if t == task {
			return true
		}
	}
	return false
}

type HealthCheckResult struct {
	Status       string        `json:"status"`
	Latency      time.Duration `json:"latency"`
	ErrorMessage string        `json:"error_message"`
	Timestamp    time.Time     `json:"timestamp"`
}

type UsageStats struct {
	TotalRequests      int64         `json:"total_requests"`
	SuccessfulRequests int64         `json:"successful_requests"`
	FailedRequests     int64         `json:"failed_requests"`
	TotalCost          float64       `json:"total_cost"`
	AverageLatency     time.Duration `json:"average_latency"`
}

type UsageRecord struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Latency      time.Duration
	Success      bool
	ErrorMessage string
	Feature      string
}

func (u UsageRecord) InputCost(costPer1K float64) float64 {
	return (float64(u.InputTokens) / 1000.0) * costPer1K
}

func (u UsageRecord) OutputCost(costPer1K float64) float64 {
	return (float64(u.OutputTokens) / 1000.0) * costPer1K
}

func (u UsageRecord) TotalCost(costIn, costOut float64) float64 {
	return u.InputCost(costIn) + u.OutputCost(costOut)
}

type usageKey struct{}

// WithUsage gives one provider call a private slot for its usage record.
// Calls sharing a provider instance run concurrently, so usage is reported
// per call rather than read back from the provider.
func WithUsage(ctx context.Context) (context.Context, *UsageRecord) {
	record := &UsageRecord{}
	return context.WithValue(ctx, usageKey{}, record), record
}

// ReportUsage fills the slot installed by WithUsage, if any.
func ReportUsage(ctx context.Context, record UsageRecord) {
	if slot, ok := ctx.Value(usageKey{}).(*UsageRecord); ok {
		*slot = record
	}
}
