package ai

import "context"

// ProviderName identifies a reasoning backend.
type ProviderName string

const (
	ProviderNameOpenAI ProviderName = "openai"
	ProviderNameStub   ProviderName = "stub"
)

// Provider is the reasoning service contract: a role prompt plus
// conversation history in, free-form text out. Implementations are
// treated as unreliable, slow and rate-limited.
type Provider interface {
	Name() ProviderName

	// Complete sends a completion request and returns the model output.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single message in the conversation history.
type Message struct {
	Role    MessageRole
	Content string
}

// CompletionRequest represents one reasoning call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// CompletionResponse is the model output plus usage telemetry.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RateLimiter defines the interface for rate limiting provider requests.
type RateLimiter interface {
	// Wait blocks until a request can proceed or the context is cancelled.
	Wait(ctx context.Context) error

	// Allow checks if a request can proceed without blocking.
	Allow() bool

	// Limit returns the current rate limit (requests per minute).
	Limit() float64
}
