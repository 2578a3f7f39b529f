package factory

import (
	"fmt"

	"portfolio-chat-be/pkg/llm"
	"portfolio-chat-be/pkg/llm/ollama"
	"portfolio-chat-be/pkg/llm/openrouter"
)

func NewProvider(providerType, modelName, baseURL, apiKey string) (llm.Provider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openrouter":
		if apiKey == "" {
			return nil, fmt.Errorf("openrouter requires an API key")
		}
		return openrouter.NewOpenRouterProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
