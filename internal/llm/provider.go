package llm

import (
	"context"
)

// Provider is the core abstraction for LLM interaction.
// A single Provider may serve many models; the model is chosen per request.
type Provider interface {
	// Generate sends a prompt to the LLM and returns the generated text
	// along with token usage.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name, e.g. "openai" or "anthropic".
	Name() string
}

// Request describes what to send to the LLM.
type Request struct {
	// Model is the provider model ID, e.g. "gpt-4" or "claude-sonnet-4-5".
	Model string

	// System is the system prompt. Sent as a system message even when empty
	// for providers that accept one.
	System string

	// Messages is the conversation. For a comparison run this contains
	// exactly one user message.
	Messages []Message

	Params Params
}

// Params are the sampling parameters passed through to the provider.
// Ranges are not checked here; each provider enforces its own.
type Params struct {
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
}

// DefaultParams returns the parameter set used when a caller omits them.
func DefaultParams() Params {
	return Params{
		Temperature: 1.0,
		TopP:        1.0,
		MaxTokens:   256,
	}
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the LLM's output.
type Response struct {
	// Text is the generated completion.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
