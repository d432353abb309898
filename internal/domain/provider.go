package domain

import (
	"context"
	"time"
)

// Provider identifies which LLM backend an agent talks to.
type Provider string

// Supported providers. The set is closed: adding a backend means adding an
// adapter that implements LLMProvider and registering it under a new value.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
		return true
	}
	return false
}

// LLMProvider is the interface for any LLM backend adapter.
type LLMProvider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Name returns the provider's identifier (e.g., "anthropic").
	Name() string
}

// SendOptions tunes a single Gateway.Send call.
type SendOptions struct {
	// Tools is the schema registry passed through to the provider for
	// function calling. Empty means a plain text exchange.
	Tools []ToolSchema
	// BackoffBase overrides the initial rate-limit backoff delay. Zero
	// means the gateway default. The chat tool loop uses a larger base
	// because its requests are heavier.
	BackoffBase time.Duration
}

// Gateway is the uniform entry point for talking to any provider on behalf
// of an agent. Implementations own rate-limit retry and backoff; everything
// else about a failed call is terminal.
type Gateway interface {
	Send(ctx context.Context, profile AgentProfile, systemPrompt string, history []Message, opts SendOptions) (*ChatResponse, error)
}
