package providers

import (
	"context"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"voice-journal/backend/internal/llm/contract"
	"voice-journal/backend/internal/models"
)

type OpenAIProvider struct {
	meter
	client  openai.Client
	config  *contract.ProviderConfig
	retrier Retrier
}

// NewOpenAIProvider also serves OpenAI-compatible gateways through BaseURL.
func NewOpenAIProvider(config *contract.ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		config:  config,
		retrier: Retrier{Attempts: 3, Delay: 400 * time.Millisecond},
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) GetConfig() *contract.ProviderConfig { return o.config }

func (o *OpenAIProvider) GetUsage(ctx context.Context) (*contract.UsageStats, error) {
	return o.usage(), nil
}

func (o *OpenAIProvider) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	content, err := o.complete(ctx, "classify", classifyPrompt+text, true)
	if err != nil {
		return nil, err
	}
	return parseLabelScores(content)
}

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return o.complete(ctx, "generate", generatePreamble+prompt, false)
}

func (o *OpenAIProvider) complete(ctx context.Context, feature, prompt string, jsonOnly bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	var resp *openai.ChatCompletion
	err := o.retrier.Do(ctx, func() error {
		params := openai.ChatCompletionNewParams{
			Model:       shared.ChatModel(o.config.ModelName),
			Temperature: openai.Float(o.config.Temperature),
			MaxTokens:   openai.Int(int64(o.config.MaxTokens)),
			Messages: []openai.ChatCompletionMessageParamUnion{
				userMessage(prompt),
			},
		}
		if jsonOnly {
			format := shared.NewResponseFormatJSONObjectParam()
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &format}
		}
		result, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return err
		}
		resp = result
		return nil
	})
	if err != nil {
		o.fail(ctx, feature, start, err)
		return "", err
	}
	o.capture(ctx, o.config, feature, start, int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens))
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAIProvider) HealthCheck(ctx context.Context) (*contract.HealthCheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	_, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.config.ModelName),
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(5),
		Messages: []openai.ChatCompletionMessageParamUnion{
			userMessage("Respond with: OK"),
		},
	})
	return healthResult(start, err)
}

func userMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}
