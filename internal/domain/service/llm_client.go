package service

import "context"

// LLMMessage is one turn of a chat completion request.
type LLMMessage struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// LLMRequest is the provider-agnostic shape both MarketSnapshotService and
// StructuredOutputClient send through a Provider.
type LLMRequest struct {
	Model       string
	Messages    []LLMMessage
	Temperature float64
	MaxTokens   int

	// EnableWebSearch requests the provider's built-in web-browsing tool,
	// used by MarketSnapshotService to ground its market brief in live data.
	EnableWebSearch bool

	// JSONSchema, when non-nil, asks the provider to constrain its
	// response to this JSON schema natively. Both providers in this module
	// honor it (OpenAI-compatible via response_format, Anthropic via a
	// forced tool call). StructuredOutputClient adds no prompt-level
	// JSON-only instruction for a backend that ignores it; only its one-shot
	// repair message asks for JSON explicitly.
	JSONSchema map[string]interface{}
}

// LLMResponse is a provider's normalized reply.
type LLMResponse struct {
	Content    string
	ModelUsed  string
	TokensUsed int
}

// LLMClient is the minimal surface a Provider exposes to the two
// components that call an LLM directly: one blocking, cancellable chat
// completion call.
type LLMClient interface {
	Generate(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
}
