package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/enquete/internal/model"
)

// CanonicalProvider maps provider aliases to one name: "google" and ""
// are gemini, "claude" is anthropic
func CanonicalProvider(name string) string {
	switch name = strings.ToLower(strings.TrimSpace(name)); name {
	case "", "google":
		return "gemini"
	case "claude":
		return "anthropic"
	}
	return name
}

// NewProvider creates a new provider based on configuration
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	provider := CanonicalProvider(config.Provider)

	// A Gemini model name is meaningless to other providers
	if provider != "gemini" && config.Model == DefaultModel {
		config.Model = ""
	}

	switch provider {
	case "gemini":
		return NewGeminiProvider(ctx, config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:    modelConfig.Provider,
		Model:       modelConfig.Model,
		APIKey:      modelConfig.APIKey,
		BaseURL:     modelConfig.BaseURL,
		Timeout:     modelConfig.Timeout,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		HTTPProxy:   modelConfig.HTTPProxy,
		HTTPSProxy:  modelConfig.HTTPSProxy,
		NoProxy:     modelConfig.NoProxy,
	}
}
