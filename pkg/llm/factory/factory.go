package factory

import (
	"fmt"

	"commandcenter-be/pkg/llm"
	"commandcenter-be/pkg/llm/ollama"
	"commandcenter-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, ollamaBaseURL, openaiBaseURL, openaiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(ollamaBaseURL, modelName), nil
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewOpenAIProvider(openaiBaseURL, openaiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
