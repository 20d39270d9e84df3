package llm

import (
	"fmt"

	"github.com/scrypster/rolodex/internal/config"
)

// NewTextGenerator creates the TextGenerator selected by cfg.LLMProvider,
// wrapped in the configured client-side rate limit. Provider "none" returns
// (nil, nil): the caller runs on the rule-based resolver alone.
func NewTextGenerator(cfg config.LLMConfig) (TextGenerator, error) {
	var gen TextGenerator
	switch cfg.LLMProvider {
	case "openai":
		gen = NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.Timeout,
		})
	case "anthropic":
		gen = NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.Timeout,
		})
	case "ollama", "":
		gen = NewOllamaClient(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.Timeout,
		})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.LLMProvider)
	}
	return NewRateLimited(gen, cfg.RequestsPerMin, 5), nil
}
