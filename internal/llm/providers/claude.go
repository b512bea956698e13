package providers

import (
	"context"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"voice-journal/backend/internal/llm/contract"
	"voice-journal/backend/internal/models"
)

type ClaudeProvider struct {
	meter
	client  anthropic.Client
	config  *contract.ProviderConfig
	retrier Retrier
}

func NewClaudeProvider(config *contract.ProviderConfig) *ClaudeProvider {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &ClaudeProvider{
		client:  anthropic.NewClient(opts...),
		config:  config,
		retrier: Retrier{Attempts: 3, Delay: 500 * time.Millisecond},
	}
}

func (c *ClaudeProvider) Name() string { return "claude" }

func (c *ClaudeProvider) GetConfig() *contract.ProviderConfig { return c.config }

func (c *ClaudeProvider) GetUsage(ctx context.Context) (*contract.UsageStats, error) {
	return c.usage(), nil
}

func (c *ClaudeProvider) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	content, err := c.complete(ctx, "classify", classifyPrompt+text)
	if err != nil {
		return nil, err
	}
	return parseLabelScores(content)
}

func (c *ClaudeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "generate", generatePreamble+prompt)
}

func (c *ClaudeProvider) complete(ctx context.Context, feature, prompt string) (string, error) {
	var response *anthropic.Message
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	start := time.Now()
	err := c.retrier.Do(ctx, func() error {
		result, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(c.config.ModelName),
			MaxTokens:   int64(c.config.MaxTokens),
			Temperature: anthropic.Float(c.config.Temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return err
		}
		response = result
		return nil
	})
	if err != nil {
		c.fail(ctx, feature, start, err)
		return "", err
	}
	c.capture(ctx, c.config, feature, start, int(response.Usage.InputTokens), int(response.Usage.OutputTokens))
	if len(response.Content) == 0 || strings.TrimSpace(response.Content[0].Text) == "" {
		return "", errEmptyResponse
	}
	return strings.TrimSpace(response.Content[0].Text), nil
}

func (c *ClaudeProvider) HealthCheck(ctx context.Context) (*contract.HealthCheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.ModelName),
		MaxTokens:   int64(32),
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Respond with: OK")),
		},
	})
	return healthResult(start, err)
}
