package llm

import (
	"context"

	"voice-journal/backend/internal/config"
	"voice-journal/backend/internal/llm/contract"
)

const defaultMaxTokens = 200

// ProviderStore lists the configured providers.
type ProviderStore interface {
	ListProviders(ctx context.Context) ([]ProviderConfig, error)
}

type StaticProviders []ProviderConfig

func (s StaticProviders) ListProviders(context.Context) ([]ProviderConfig, error) {
	out := make([]ProviderConfig, len(s))
	copy(out, s)
	return out, nil
}

// ProvidersFromConfig builds the provider list from the environment. Hosted
// inference models come first; chat APIs are tried after them. Providers
// without credentials are left out.
func ProvidersFromConfig(cfg config.Config) StaticProviders {
	out := StaticProviders{}
	if cfg.HFToken != "" {
		for i, model := range cfg.HFEmotionModels {
			out = append(out, ProviderConfig{
				ProviderName:      "huggingface",
				APIKey:            cfg.HFToken,
				ModelName:         model,
				RequestsPerSecond: cfg.HFRequestsPerSec,
				Tasks:             []Task{contract.TaskClassification},
				Priority:          10 + i,
			})
		}
		for i, model := range cfg.HFGenerationModels {
			out = append(out, ProviderConfig{
				ProviderName:      "huggingface",
				APIKey:            cfg.HFToken,
				ModelName:         model,
				Temperature:       0.7,
				MaxTokens:         60,
				RequestsPerSecond: cfg.HFRequestsPerSec,
				Tasks:             []Task{contract.TaskGeneration},
				Priority:          10 + i,
			})
		}
	}
	both := []Task{contract.TaskClassification, contract.TaskGeneration}
	if cfg.OpenAIKey != "" {
		out = append(out, ProviderConfig{
			ProviderName:    "openai",
			APIKey:          cfg.OpenAIKey,
			ModelName:       cfg.OpenAIModel,
			Temperature:     0.3,
			MaxTokens:       defaultMaxTokens,
			CostPer1KInput:  0.00015,
			CostPer1KOutput: 0.0006,
			Tasks:           both,
			Priority:        20,
		})
	}
	if cfg.AnthropicKey != "" {
		out = append(out, ProviderConfig{
			ProviderName:    "claude",
			APIKey:          cfg.AnthropicKey,
			ModelName:       cfg.AnthropicModel,
			Temperature:     0.3,
			MaxTokens:       defaultMaxTokens,
			CostPer1KInput:  0.0008,
			CostPer1KOutput: 0.004,
			Tasks:           both,
			Priority:        30,
		})
	}
	if cfg.CohereKey != "" {
		out = append(out, ProviderConfig{
			ProviderName: "cohere",
			APIKey:       cfg.CohereKey,
			ModelName:    cfg.CohereModel,
			Temperature:  0.3,
			MaxTokens:    defaultMaxTokens,
			Tasks:        both,
			Priority:     40,
		})
	}
	return out
}
