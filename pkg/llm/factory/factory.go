package factory

import (
	"fmt"

	"cskg-agent-be/pkg/llm"
	"cskg-agent-be/pkg/llm/ollama"
	"cskg-agent-be/pkg/llm/openai"
)

type ProviderConfig struct {
	Provider          string
	Model             string
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
}

func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	var provider llm.LLMProvider

	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		provider = ollama.NewOllamaProvider(baseURL, cfg.Model)
	case "openai":
		p, err := openai.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if cfg.RequestsPerSecond > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerSecond)
	}

	return provider, nil
}
