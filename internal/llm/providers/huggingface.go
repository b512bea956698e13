package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"voice-journal/backend/internal/llm/contract"
	"voice-journal/backend/internal/models"
)

const defaultHuggingFaceURL = "https://api-inference.huggingface.co/models/"

// HuggingFaceProvider calls the hosted inference API. Emotion models
// classify, text-generation models generate.
type HuggingFaceProvider struct {
	meter
	client  *http.Client
	config  *contract.ProviderConfig
	limiter *rate.Limiter
	retrier Retrier
}

func NewHuggingFaceProvider(config *contract.ProviderConfig) *HuggingFaceProvider {
	perSecond := config.RequestsPerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	return &HuggingFaceProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1),
		retrier: Retrier{Attempts: 2, Delay: 300 * time.Millisecond},
	}
}

func (h *HuggingFaceProvider) Name() string { return "huggingface:" + h.config.ModelName }

func (h *HuggingFaceProvider) GetConfig() *contract.ProviderConfig { return h.config }

func (h *HuggingFaceProvider) GetUsage(ctx context.Context) (*contract.UsageStats, error) {
	return h.usage(), nil
}

func (h *HuggingFaceProvider) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	if !h.config.Supports(contract.TaskClassification) {
		return nil, contract.ErrUnsupportedTask
	}
	start := time.Now()
	var scores []models.LabelScore
	err := h.retrier.Do(ctx, func() error {
		body, err := h.post(ctx, map[string]any{"inputs": text})
		if err != nil {
			return err
		}
		scores, err = parseLabelScores(string(body))
		return err
	})
	if err != nil {
		h.fail(ctx, "classify", start, err)
		return nil, err
	}
	h.capture(ctx, h.config, "classify", start, 0, 0)
	return scores, nil
}

func (h *HuggingFaceProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if !h.config.Supports(contract.TaskGeneration) {
		return "", contract.ErrUnsupportedTask
	}
	maxTokens := h.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 60
	}
	request := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"max_new_tokens":   maxTokens,
			"temperature":      h.config.Temperature,
			"return_full_text": false,
			"do_sample":        true,
		},
	}
	start := time.Now()
	var text string
	err := h.retrier.Do(ctx, func() error {
		body, err := h.post(ctx, request)
		if err != nil {
			return err
		}
		var generated []struct {
			GeneratedText string `json:"generated_text"`
		}
		if err := json.Unmarshal(body, &generated); err != nil {
			return fmt.Errorf("decode generation: %w", err)
		}
		if len(generated) == 0 || strings.TrimSpace(generated[0].GeneratedText) == "" {
			return errEmptyResponse
		}
		text = strings.TrimSpace(strings.TrimPrefix(generated[0].GeneratedText, prompt))
		return nil
	})
	if err != nil {
		h.fail(ctx, "generate", start, err)
		return "", err
	}
	h.capture(ctx, h.config, "generate", start, 0, 0)
	return text, nil
}

func (h *HuggingFaceProvider) HealthCheck(ctx context.Context) (*contract.HealthCheckResult, error) {
	start := time.Now()
	var err error
	if h.config.Supports(contract.TaskClassification) {
		_, err = h.Classify(ctx, "I feel fine today.")
	} else {
		_, err = h.Generate(ctx, "Say OK.")
	}
	return healthResult(start, err)
}

func (h *HuggingFaceProvider) post(ctx context.Context, payload any) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	base := h.config.BaseURL
	if base == "" {
		base = defaultHuggingFaceURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(base, "/")+"/"+h.config.ModelName, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if apiErr := inferenceError(body); apiErr != nil {
		return nil, apiErr
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("huggingface %s: status %d", h.config.ModelName, resp.StatusCode)
	}
	return body, nil
}

// inferenceError recognizes {"error": "..."} bodies, which the API also
// sends with a 503 while a model loads.
func inferenceError(body []byte) error {
	var payload struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == nil {
		return nil
	}
	message := fmt.Sprint(payload.Error)
	if strings.Contains(strings.ToLower(message), "loading") {
		return fmt.Errorf("%w: %s", contract.ErrModelLoading, message)
	}
	return errors.New("huggingface: " + message)
}
