package driven

import "context"

// LLMService is the external generation function: system and user prompt in,
// text out. It is optional; without it every answer is an error reply.
//
// Implementations:
//   - OpenAI (and compatible servers)
//   - Anthropic
//   - Ollama (local models)
type LLMService interface {
	// Complete runs one stateless exchange and returns the model's text.
	Complete(ctx context.Context, req Completion) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping checks the provider answers and the model is available.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Completion is a single request. Conversation state never reaches the
// provider; the answer service folds what it needs into System.
type Completion struct {
	System string
	User   string

	// MaxTokens caps the reply. Zero leaves the provider default.
	MaxTokens int

	// Temperature is always sent, so zero means deterministic.
	Temperature float64
}
