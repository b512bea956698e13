package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"voice-journal/backend/internal/llm/contract"
)

func newTestHuggingFace(t *testing.T, handler http.HandlerFunc, tasks ...contract.Task) *HuggingFaceProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHuggingFaceProvider(&contract.ProviderConfig{
		ProviderName:      "huggingface",
		APIKey:            "test-token",
		ModelName:         "org/model",
		BaseURL:           server.URL,
		RequestsPerSecond: 100,
		Tasks:             tasks,
	})
}

func TestHuggingFaceClassify(t *testing.T) {
	provider := newTestHuggingFace(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/org/model" || r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("unexpected request %s %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["inputs"] != "What a lovely day" {
			t.Errorf("unexpected inputs %v", body["inputs"])
		}
		_, _ = w.Write([]byte(`[[{"label":"joy","score":0.93},{"label":"neutral","score":0.04}]]`))
	}, contract.TaskClassification)

	scores, err := provider.Classify(context.Background(), "What a lovely day")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(scores) != 2 || scores[0].Label != "joy" {
		t.Fatalf("unexpected scores %v", scores)
	}
	usage, _ := provider.GetUsage(context.Background())
	if usage.SuccessfulRequests != 1 {
		t.Fatalf("expected usage recorded, got %+v", usage)
	}
}

func TestHuggingFaceModelLoading(t *testing.T) {
	var calls atomic.Int32
	provider := newTestHuggingFace(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model org/model is currently loading","estimated_time":20.0}`))
	}, contract.TaskClassification)

	_, err := provider.Classify(context.Background(), "anything at all")
	if !errors.Is(err, contract.ErrModelLoading) {
		t.Fatalf("expected ErrModelLoading, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("loading model must not be retried, got %d calls", calls.Load())
	}
}

func TestHuggingFaceGenerate(t *testing.T) {
	provider := newTestHuggingFace(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"generated_text":"  Take a slow breath and be gentle with yourself.  "}]`))
	}, contract.TaskGeneration)

	text, err := provider.Generate(context.Background(), "advice for someone feeling sad:")
	if err != nil || text != "Take a slow breath and be gentle with yourself." {
		t.Fatalf("unexpected generation %q %v", text, err)
	}
	if _, err := provider.Classify(context.Background(), "text"); !errors.Is(err, contract.ErrUnsupportedTask) {
		t.Fatalf("expected ErrUnsupportedTask, got %v", err)
	}
}
