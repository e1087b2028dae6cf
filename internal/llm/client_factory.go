package llm

import (
	"fmt"
	"os"

	"shellmind/internal/logging"
)

// NewClient builds a client for the given provider. An empty provider
// selects by which API key env var is set, checking ANTHROPIC_API_KEY,
// then OPENAI_API_KEY, then GEMINI_API_KEY.
func NewClient(provider Provider, config Config) (Client, error) {
	if provider == "" {
		detected, key, err := detectProvider()
		if err != nil {
			return nil, err
		}
		provider = detected
		if config.APIKey == "" {
			config.APIKey = key
		}
	}
	if config.APIKey == "" {
		config.APIKey = keyFromEnv(provider)
	}

	logging.LLM("creating %s client (model=%s)", provider, config.Model)

	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClientWithConfig(config), nil
	case ProviderOpenAI:
		return NewOpenAIClientWithConfig(config), nil
	case ProviderGemini:
		return NewGeminiClientWithConfig(config), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func detectProvider() (Provider, string, error) {
	checks := []struct {
		provider Provider
		envVar   string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGemini, "GEMINI_API_KEY"},
	}
	for _, check := range checks {
		if key := os.Getenv(check.envVar); key != "" {
			return check.provider, key, nil
		}
	}
	return "", "", fmt.Errorf("no provider configured: set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY")
}

func keyFromEnv(provider Provider) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}
