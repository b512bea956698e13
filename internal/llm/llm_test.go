package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voice-journal/backend/internal/cache"
	"voice-journal/backend/internal/config"
	"voice-journal/backend/internal/llm/contract"
	"voice-journal/backend/internal/models"
)

type fakeProvider struct {
	config    *ProviderConfig
	healthErr error
	classify  []models.LabelScore
	err       error
}

func (f *fakeProvider) Name() string { return f.config.ProviderName + ":" + f.config.ModelName }

func (f *fakeProvider) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	contract.ReportUsage(ctx, UsageRecord{InputTokens: len(text), OutputTokens: 3, TotalTokens: len(text) + 3})
	return f.classify, f.err
}

func (f *fakeProvider) Generate(context.Context, string) (string, error) {
	return "Take a slow breath and notice how you feel", f.err
}

func (f *fakeProvider) HealthCheck(context.Context) (*HealthCheckResult, error) {
	return &HealthCheckResult{Timestamp: time.Now()}, f.healthErr
}

func (f *fakeProvider) GetConfig() *ProviderConfig { return f.config }

func (f *fakeProvider) GetUsage(context.Context) (*UsageStats, error) { return &UsageStats{}, nil }

func newTestRouter(providers ...*fakeProvider) *Router {
	factory := NewFactory()
	store := StaticProviders{}
	for _, p := range providers {
		factory.instances[p.config.Key()] = p
		store = append(store, *p.config)
	}
	return NewRouter(factory, store, nil)
}

func provider(name string, priority int, tasks ...Task) *fakeProvider {
	return &fakeProvider{config: &ProviderConfig{ProviderName: name, ModelName: "m", Priority: priority, Tasks: tasks}}
}

func TestRouterOrdersByPriorityAndTask(t *testing.T) {
	low := provider("cohere", 40, contract.TaskClassification, contract.TaskGeneration)
	high := provider("huggingface", 10, contract.TaskClassification)
	gen := provider("openai", 20, contract.TaskGeneration)
	router := newTestRouter(low, high, gen)

	classifiers := router.Available(context.Background(), contract.TaskClassification)
	if len(classifiers) != 2 || classifiers[0] != Provider(high) || classifiers[1] != Provider(low) {
		t.Fatalf("unexpected classifier order %v", classifiers)
	}
	generators := router.Available(context.Background(), contract.TaskGeneration)
	if len(generators) != 2 || generators[0] != Provider(gen) {
		t.Fatalf("unexpected generator order %v", generators)
	}
}

func TestHealthMonitorMarksUnhealthyAfterThreeFailures(t *testing.T) {
	flaky := provider("openai", 20, contract.TaskGeneration)
	flaky.healthErr = errors.New("503")
	router := newTestRouter(flaky)
	monitor := NewHealthMonitor(router, nil, nil)
	router.SetHealth(monitor)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		monitor.CheckAll(ctx)
		if !monitor.Healthy(flaky.config.Key()) {
			t.Fatalf("provider unhealthy after %d failures", i+1)
		}
	}
	monitor.CheckAll(ctx)
	if monitor.Healthy(flaky.config.Key()) {
		t.Fatal("expected provider unhealthy after three failures")
	}
	if got := router.Available(ctx, contract.TaskGeneration); len(got) != 0 {
		t.Fatalf("expected unhealthy provider skipped, got %v", got)
	}

	flaky.healthErr = nil
	monitor.CheckAll(ctx)
	if !monitor.Healthy(flaky.config.Key()) {
		t.Fatal("expected recovery after a successful check")
	}
	snapshot := monitor.Snapshot()
	if len(snapshot) != 1 || snapshot[0].Status != statusOK || snapshot[0].ConsecutiveFailures != 0 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

type usageRecorder struct {
	mu      sync.Mutex
	records []UsageRecord
}

func (u *usageRecorder) InsertUsage(_ context.Context, _, _ string, record UsageRecord) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.records = append(u.records, record)
	return nil
}

func TestServiceRecordsUsage(t *testing.T) {
	p := provider("huggingface", 10, contract.TaskClassification)
	p.classify = []models.LabelScore{{Label: "joy", Score: 0.9}}
	recorder := &usageRecorder{}
	service := NewService(newTestRouter(p), recorder, nil, nil)

	classifiers := service.Classifiers(context.Background())
	if len(classifiers) != 1 {
		t.Fatalf("expected one classifier, got %d", len(classifiers))
	}
	scores, err := classifiers[0].Classify(context.Background(), "I feel good today")
	if err != nil || len(scores) != 1 {
		t.Fatalf("unexpected classify result %v %v", scores, err)
	}
	if len(service.Generators(context.Background())) != 0 {
		t.Fatal("classification-only provider must not generate")
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected one usage record, got %d", len(recorder.records))
	}
	record := recorder.records[0]
	if !record.Success || record.Feature != "classify" || record.TotalTokens != len("I feel good today")+3 {
		t.Fatalf("unexpected usage record %+v", record)
	}
}

func TestProvidersFromConfig(t *testing.T) {
	cfg := config.Config{
		HFToken:            "hf-test",
		HFEmotionModels:    []string{"a", "b"},
		HFGenerationModels: []string{"gpt2"},
		OpenAIKey:          "sk-test",
		OpenAIModel:        "gpt-4o-mini",
	}
	providers := ProvidersFromConfig(cfg)
	if len(providers) != 4 {
		t.Fatalf("expected 4 providers, got %d", len(providers))
	}
	if providers[0].ModelName != "a" || !providers[0].Supports(contract.TaskClassification) {
		t.Fatalf("unexpected first provider %+v", providers[0])
	}
	if providers[3].ProviderName != "openai" || !providers[3].Supports(contract.TaskGeneration) {
		t.Fatalf("unexpected chat provider %+v", providers[3])
	}
	if len(ProvidersFromConfig(config.Config{})) != 0 {
		t.Fatal("expected no providers without credentials")
	}
}

func TestLocalQueueBatches(t *testing.T) {
	q := NewLocalQueue()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = q.Enqueue(ctx, AnalysisJob{EntryID: id})
	}
	first, _ := q.DequeueBatch(ctx, 2)
	second, _ := q.DequeueBatch(ctx, 2)
	if len(first) != 2 || first[0].EntryID != "a" || len(second) != 1 || second[0].EntryID != "c" {
		t.Fatalf("unexpected batches %v %v", first, second)
	}
}

type broadcastRecorder struct {
	mu       sync.Mutex
	payloads []any
}

func (b *broadcastRecorder) Broadcast(payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, payload)
}

func TestWorkerPoolAnalyzesQueuedEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewLocalQueue()
	store := cache.NewMemoryCache(time.Minute)
	hub := &broadcastRecorder{}
	pool := &WorkerPool{
		Queue: queue,
		Analyze: func(_ context.Context, text string) *models.ComprehensiveMoodAnalysis {
			return &models.ComprehensiveMoodAnalysis{Summary: text}
		},
		Sink:    StoreAnalysis{Cache: store, Hub: hub, Entries: newEntryTexts(map[string]string{"entry-1": "A quiet evening"})},
		Workers: 2,
		Idle:    5 * time.Millisecond,
	}
	pool.Start(ctx)

	enqueuer := Enqueuer{Queue: queue}
	if err := enqueuer.EnqueueAnalysis(ctx, "entry-1", "A quiet evening"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, _ := store.Get(ctx, "entry-1")
		if got != nil {
			if got.Summary != "A quiet evening" {
				t.Fatalf("unexpected analysis %+v", got)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("analysis never cached")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	pool.Wait()

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if len(hub.payloads) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(hub.payloads))
	}
}

func TestServiceUsagePerConcurrentCall(t *testing.T) {
	p := provider("openai", 20, contract.TaskClassification)
	recorder := &usageRecorder{}
	service := NewService(newTestRouter(p), recorder, nil, nil)
	classifier := service.Classifiers(context.Background())[0]

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "ggggggg", "hhhhhhhh"}
	var wg sync.WaitGroup
	for _, text := range texts {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, _ = classifier.Classify(context.Background(), text)
		}(text)
	}
	wg.Wait()

	seen := map[int]int{}
	for _, record := range recorder.records {
		if record.TotalTokens != record.InputTokens+3 {
			t.Fatalf("tokens mixed between calls: %+v", record)
		}
		seen[record.InputTokens]++
	}
	for _, text := range texts {
		if seen[len(text)] != 1 {
			t.Fatalf("expected exactly one record for %q, got %d (%v)", text, seen[len(text)], seen)
		}
	}
}

type historyStore struct {
	history map[string][]string
}

func (h *historyStore) InsertHealth(context.Context, string, *HealthCheckResult) error { return nil }

func (h *historyStore) ConsecutiveHealthFailures(_ context.Context, provider string) (int, error) {
	return consecutiveFailures(h.history[provider]), nil
}

func TestConsecutiveFailures(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     int
	}{
		{"none", nil, 0},
		{"recovered", []string{statusOK, statusError, statusError}, 0},
		{"slow counts as up", []string{statusSlow, statusError}, 0},
		{"two in a row", []string{statusError, statusError, statusOK}, 2},
		{"all failed", []string{statusError, statusError, statusError}, 3},
	}
	for _, tt := range tests {
		if got := consecutiveFailures(tt.statuses); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestRestoreIgnoresFailuresBeforeRecovery(t *testing.T) {
	recovered := provider("openai", 20, contract.TaskGeneration)
	failing := provider("cohere", 40, contract.TaskGeneration)
	router := newTestRouter(recovered, failing)
	store := &historyStore{history: map[string][]string{
		recovered.Name(): {statusOK, statusError, statusError},
		failing.Name():   {statusError, statusError, statusOK},
	}}
	monitor := NewHealthMonitor(router, store, nil)
	monitor.Restore(context.Background())

	failed := &HealthCheckResult{Status: statusError, ErrorMessage: "503", Timestamp: time.Now()}
	monitor.Observe(recovered.config, failed)
	if !monitor.Healthy(recovered.config.Key()) {
		t.Fatal("one failure after recovery must not mark the provider unhealthy")
	}
	monitor.Observe(failing.config, failed)
	if monitor.Healthy(failing.config.Key()) {
		t.Fatal("third failure in a row must mark the provider unhealthy")
	}
}

// entryTexts is an in-memory EntryReader.
type entryTexts struct {
	mu    sync.Mutex
	texts map[string]string
}

func newEntryTexts(texts map[string]string) *entryTexts {
	return &entryTexts{texts: texts}
}

func (e *entryTexts) Get(_ context.Context, id string) (*models.JournalEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	text, ok := e.texts[id]
	if !ok {
		return nil, nil
	}
	return &models.JournalEntry{ID: id, Text: text}, nil
}

func (e *entryTexts) set(id, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts[id] = text
}

func (e *entryTexts) remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.texts, id)
}

// blockingAnalyzer holds analysis of one text until released.
type blockingAnalyzer struct {
	hold    string
	started chan struct{}
	release chan struct{}
}

func newBlockingAnalyzer(hold string) *blockingAnalyzer {
	return &blockingAnalyzer{hold: hold, started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingAnalyzer) analyze(_ context.Context, text string) *models.ComprehensiveMoodAnalysis {
	if text == b.hold {
		close(b.started)
		<-b.release
	}
	return &models.ComprehensiveMoodAnalysis{Summary: text}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestWorkerPoolDropsAnalysisOfEditedText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := newEntryTexts(map[string]string{"entry-1": "old text"})
	store := cache.NewMemoryCache(time.Minute)
	hub := &broadcastRecorder{}
	analyzer := newBlockingAnalyzer("old text")
	queue := NewLocalQueue()
	pool := &WorkerPool{
		Queue:     queue,
		Analyze:   analyzer.analyze,
		Sink:      StoreAnalysis{Cache: store, Hub: hub, Entries: entries},
		Workers:   2,
		BatchSize: 1,
		Idle:      2 * time.Millisecond,
	}
	pool.Start(ctx)
	enqueuer := Enqueuer{Queue: queue}

	_ = enqueuer.EnqueueAnalysis(ctx, "entry-1", "old text")
	<-analyzer.started

	entries.set("entry-1", "new text")
	_ = store.Delete(ctx, "entry-1")
	_ = enqueuer.EnqueueAnalysis(ctx, "entry-1", "new text")
	waitFor(t, "analysis of the edited text", func() bool {
		got, _ := store.Get(ctx, "entry-1")
		return got != nil
	})

	close(analyzer.release)
	cancel()
	pool.Wait()

	got, _ := store.Get(context.Background(), "entry-1")
	if got == nil || got.Summary != "new text" {
		t.Fatalf("expected analysis of the edited text to stay cached, got %+v", got)
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if len(hub.payloads) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(hub.payloads))
	}
}

func TestWorkerPoolDropsAnalysisOfDeletedEntry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := newEntryTexts(map[string]string{"entry-1": "soon gone", "entry-2": "still here"})
	store := cache.NewMemoryCache(time.Minute)
	hub := &broadcastRecorder{}
	analyzer := newBlockingAnalyzer("soon gone")
	queue := NewLocalQueue()
	pool := &WorkerPool{
		Queue:   queue,
		Analyze: analyzer.analyze,
		Sink:    StoreAnalysis{Cache: store, Hub: hub, Entries: entries},
		Workers: 1,
		Idle:    2 * time.Millisecond,
	}
	pool.Start(ctx)

	enqueuer := Enqueuer{Queue: queue}
	_ = enqueuer.EnqueueAnalysis(ctx, "entry-1", "soon gone")
	<-analyzer.started
	entries.remove("entry-1")
	_ = enqueuer.EnqueueAnalysis(ctx, "entry-2", "still here")
	close(analyzer.release)
	// The single worker finishes entry-1 before it picks up entry-2.
	waitFor(t, "analysis of entry-2", func() bool {
		got, _ := store.Get(ctx, "entry-2")
		return got != nil
	})
	cancel()
	pool.Wait()

	if got, _ := store.Get(context.Background(), "entry-1"); got != nil {
		t.Fatalf("deleted entry must not be cached, got %+v", got)
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if len(hub.payloads) != 1 {
		t.Fatalf("expected only the entry-2 broadcast, got %d", len(hub.payloads))
	}
}
