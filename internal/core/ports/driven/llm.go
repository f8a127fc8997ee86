// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService generates answer text from a grounded prompt.
// When nil, questions still retrieve context and the answer carries the failure.
//
// Implementations may include:
//   - Ollama (local models, phi3:mini by default)
//   - OpenAI (gpt-4o-mini)
//   - Anthropic (Claude)
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	// Zero is a meaningful value and is always sent to the provider.
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
