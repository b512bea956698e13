package llm

import (
	"strings"
	"sync"

	"voice-journal/backend/internal/llm/providers"
)

type Factory struct {
	mu        sync.Mutex
	instances map[string]Provider
}

func NewFactory() *Factory {
	return &Factory{instances: map[string]Provider{}}
}

// CreateProvider returns nil for unknown provider names.
func (f *Factory) CreateProvider(config *ProviderConfig) Provider {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := config.Key()
	if provider, ok := f.instances[key]; ok {
		return provider
	}

	var provider Provider
	switch strings.ToLower(config.ProviderName) {
	case "huggingface", "hf":
		provider = providers.NewHuggingFaceProvider(config)
	case "claude", "anthropic":
		provider = providers.NewClaudeProvider(config)
	case "openai", "groq":
		provider = providers.NewOpenAIProvider(config)
	case "cohere":
		provider = providers.NewCohereProvider(config)
	default:
		return nil
	}
	f.instances[key] = provider
	return provider
}
