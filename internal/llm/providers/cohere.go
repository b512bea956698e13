package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go"

	"voice-journal/backend/internal/llm/contract"
	"voice-journal/backend/internal/models"
)

var errCohereClient = errors.New("cohere client not initialized")

type CohereProvider struct {
	meter
	client  *cohere.Client
	config  *contract.ProviderConfig
	retrier Retrier
}

func NewCohereProvider(config *contract.ProviderConfig) *CohereProvider {
	client, _ := cohere.CreateClient(config.APIKey)
	return &CohereProvider{
		client:  client,
		config:  config,
		retrier: Retrier{Attempts: 3, Delay: 400 * time.Millisecond},
	}
}

func (c *CohereProvider) Name() string { return "cohere" }

func (c *CohereProvider) GetConfig() *contract.ProviderConfig { return c.config }

func (c *CohereProvider) GetUsage(ctx context.Context) (*contract.UsageStats, error) {
	return c.usage(), nil
}

func (c *CohereProvider) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	content, err := c.generate(ctx, "classify", classifyPrompt+text, c.config.MaxTokens)
	if err != nil {
		return nil, err
	}
	return parseLabelScores(content)
}

func (c *CohereProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "generate", generatePreamble+prompt, c.config.MaxTokens)
}

// generate wraps the blocking SDK call so ctx cancellation still returns
// promptly.
func (c *CohereProvider) generate(ctx context.Context, feature, prompt string, tokens int) (string, error) {
	if c.client == nil {
		return "", errCohereClient
	}
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	start := time.Now()
	var response *cohere.GenerateResponse
	err := c.retrier.Do(ctx, func() error {
		maxTokens := uint(tokens)
		temperature := c.config.Temperature
		type outcome struct {
			response *cohere.GenerateResponse
			err      error
		}
		done := make(chan outcome, 1)
		go func() {
			result, err := c.client.Generate(cohere.GenerateOptions{
				Model:       c.config.ModelName,
				Prompt:      prompt,
				MaxTokens:   &maxTokens,
				Temperature: &temperature,
			})
			done <- outcome{result, err}
		}()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out := <-done:
			if out.err != nil {
				return out.err
			}
			response = out.response
			return nil
		}
	})
	if err != nil {
		c.fail(ctx, feature, start, err)
		return "", err
	}
	c.capture(ctx, c.config, feature, start, 0, 0)
	if response == nil || len(response.Generations) == 0 || strings.TrimSpace(response.Generations[0].Text) == "" {
		return "", errEmptyResponse
	}
	return strings.TrimSpace(response.Generations[0].Text), nil
}

func (c *CohereProvider) HealthCheck(ctx context.Context) (*contract.HealthCheckResult, error) {
	start := time.Now()
	_, err := c.generate(ctx, "health", "Respond with: OK", 10)
	return healthResult(start, err)
}
