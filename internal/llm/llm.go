// Package llm provides interfaces and implementations for Large Language Model clients.
package llm

import (
	"context"
)

// InvokeOptions configures the LLM invocation.
type InvokeOptions struct {
	// Model specifies the LLM model to use (e.g., "llama3.2", "mistral").
	Model string

	// SystemPrompt sets the system-level instructions for the model.
	SystemPrompt string

	// Temperature controls randomness in generation (0.0 = deterministic, 1.0 = creative).
	Temperature float32

	// MaxTokens limits the maximum number of tokens in the response.
	MaxTokens int
}

// Completion is the result of a single LLM invocation.
type Completion struct {
	// Content contains the model's raw text output. Models routinely wrap
	// structured output in prose or markdown fences; callers must parse
	// accordingly.
	Content string

	// Model is the model that produced the completion.
	Model string

	// Metadata carries provider-specific response details (token counts,
	// durations) keyed by provider field names.
	Metadata map[string]any
}

// LLM defines the interface for Large Language Model clients.
type LLM interface {
	// Invoke sends a prompt to the LLM and returns the complete response.
	// It blocks until the full response is received or an error occurs.
	Invoke(ctx context.Context, prompt string, opts InvokeOptions) (*Completion, error)
}
