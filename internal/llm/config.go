package llm

import (
	"os"
	"time"
)

// Provider names.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig

	// Mock routes every model to a MockProvider. No API key needed.
	Mock bool

	// Timeout is the maximum duration for a single model call. Zero means
	// no per-call limit beyond the caller's context.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string // Optional.
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // Optional. Override for Azure proxies or compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // Optional.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from the standard provider environment
// variables, falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.Anthropic.BaseURL = os.Getenv("ANTHROPIC_BASE_URL")
	cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.OpenRouter.BaseURL = os.Getenv("OPENROUTER_BASE_URL")

	return cfg
}

// Configured returns the names of providers that have an API key set.
func (c Config) Configured() []string {
	var names []string
	if c.Mock {
		names = append(names, ProviderMock)
	}
	if c.OpenAI.APIKey != "" {
		names = append(names, ProviderOpenAI)
	}
	if c.Anthropic.APIKey != "" {
		names = append(names, ProviderAnthropic)
	}
	if c.Gemini.APIKey != "" {
		names = append(names, ProviderGemini)
	}
	if c.OpenRouter.APIKey != "" {
		names = append(names, ProviderOpenRouter)
	}
	return names
}

// HasCredentials reports whether at least one provider can be called.
func (c Config) HasCredentials() bool {
	return len(c.Configured()) > 0
}
