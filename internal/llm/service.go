package llm

import (
	"context"
	"log/slog"
	"time"

	"voice-journal/backend/internal/insight"
	"voice-journal/backend/internal/llm/contract"
	"voice-journal/backend/internal/models"
	"voice-journal/backend/internal/mood"
)

type UsageStore interface {
	InsertUsage(ctx context.Context, provider, model string, record UsageRecord) error
}

type CallObserver interface {
	ProviderCall(provider, feature string, latency time.Duration, success bool)
}

// Service hands routed providers to the mood and insight pipelines and
// records usage for every call they make.
type Service struct {
	Router   *Router
	Store    UsageStore
	Observer CallObserver
	Logger   *slog.Logger
}

func NewService(router *Router, store UsageStore, observer CallObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Router: router, Store: store, Observer: observer, Logger: logger}
}

func (s *Service) Classifiers(ctx context.Context) []mood.Classifier {
	providers := s.Router.Available(ctx, contract.TaskClassification)
	out := make([]mood.Classifier, 0, len(providers))
	for _, provider := range providers {
		out = append(out, tracked{provider: provider, service: s})
	}
	return out
}

func (s *Service) Generators(ctx context.Context) []insight.Generator {
	providers := s.Router.Available(ctx, contract.TaskGeneration)
	out := make([]insight.Generator, 0, len(providers))
	for _, provider := range providers {
		out = append(out, tracked{provider: provider, service: s})
	}
	return out
}

type tracked struct {
	provider Provider
	service  *Service
}

func (t tracked) Name() string { return t.provider.Name() }

func (t tracked) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	ctx, usage := contract.WithUsage(ctx)
	start := time.Now()
	scores, err := t.provider.Classify(ctx, text)
	t.service.record(ctx, t.provider, usageFor(*usage, start, err, "classify"))
	return scores, err
}

func (t tracked) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, usage := contract.WithUsage(ctx)
	start := time.Now()
	text, err := t.provider.Generate(ctx, prompt)
	t.service.record(ctx, t.provider, usageFor(*usage, start, err, "generate"))
	return text, err
}

func (s *Service) record(ctx context.Context, provider Provider, record UsageRecord) {
	if s.Observer != nil {
		s.Observer.ProviderCall(provider.Name(), record.Feature, record.Latency, record.Success)
	}
	if s.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.Store.InsertUsage(ctx, provider.GetConfig().ProviderName, provider.GetConfig().ModelName, record); err != nil {
		s.Logger.Warn("record llm usage", "provider", provider.Name(), "error", err)
	}
}

// usageFor completes the record a provider reported for this call. Providers
// that report nothing still get the latency measured here.
func usageFor(reported UsageRecord, start time.Time, err error, feature string) UsageRecord {
	record := reported
	record.Feature = feature
	record.Success = err == nil
	record.ErrorMessage = errorString(err)
	if record.Latency == 0 {
		record.Latency = time.Since(start)
	}
	return record
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
