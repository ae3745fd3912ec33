package driven

import "context"

// LLMService is a chat model. Structured calls carry a ResponseFormat and
// the provider constrains decoding to it; the judge still validates the
// reply. Failures to reach the provider wrap domain.ErrLLMUnavailable,
// which stops the run; anything else is retried by the caller.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
	ModelName() string

	// Ping checks credentials and reachability without running inference.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes a single-prompt completion. Zero MaxTokens leaves
// the provider default.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}

// ChatMessage is one turn; Role is RoleSystem, RoleUser or RoleAssistant.
type ChatMessage struct {
	Role    string
	Content string
}

type ChatOptions struct {
	MaxTokens   int
	Temperature float64

	// Format asks for a JSON object matching a schema. Nil means free text.
	Format *ResponseFormat
}

// ResponseFormat names a JSON Schema, e.g. "binary_score". Providers that
// force a tool call use Name as the tool name.
type ResponseFormat struct {
	Name   string
	Schema map[string]any
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
