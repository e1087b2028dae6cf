// Package llm implements clients for the LLM providers the agent can
// drive. All clients speak the provider REST APIs directly and satisfy
// types.LLMClient.
package llm

import (
	"time"

	"shellmind/internal/types"
)

// Client is the provider interface. Alias to types.LLMClient so
// packages that already import types don't need this one.
type Client = types.LLMClient

// ToolDefinition and friends alias the shared types for package
// compatibility.
type (
	ToolDefinition  = types.ToolDefinition
	ToolCall        = types.ToolCall
	LLMToolResponse = types.LLMToolResponse
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// Config holds common client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

const defaultTimeout = 10 * time.Minute

func (c Config) withDefaults(baseURL, model string) Config {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	return c
}
