// Package generator builds the response payload for a query, optionally
// enhanced with an LLM explanation grounded in the retrieved context.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quizmentor/rag/internal/llm"
	"github.com/quizmentor/rag/internal/retriever"
)

const (
	// generateTemperature keeps explanations factual.
	generateTemperature = 0.2

	// generateMaxTokens bounds explanation length.
	generateMaxTokens = 1024
)

// Response is the payload returned for a query.
type Response struct {
	// Questions is the final (possibly reranked) context returned to the
	// caller. Empty for terminal "no content" responses.
	Questions []retriever.Candidate `json:"questions,omitempty"`

	// Model names the LLM that produced the explanation, if any.
	Model string `json:"model,omitempty"`

	// Explanation is the optional LLM-generated summary grounded in the
	// context. Absent when use_llm is off or the LLM call failed.
	Explanation string `json:"explanation,omitempty"`

	// Text carries a fixed message for terminal responses (e.g. empty
	// retrieval).
	Text string `json:"text,omitempty"`

	// Metadata carries provider-specific generation details.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ResponseGenerator assembles responses from final context.
type ResponseGenerator struct {
	llmClient llm.LLM
	model     string
	logger    *slog.Logger
}

// Option is a functional option for configuring ResponseGenerator.
type Option func(*ResponseGenerator)

// WithModel sets the model used for explanations.
func WithModel(model string) Option {
	return func(g *ResponseGenerator) {
		g.model = model
	}
}

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(g *ResponseGenerator) {
		g.logger = logger
	}
}

// NewResponseGenerator creates a new response generator. llmClient may be
// nil, in which case use_llm requests degrade to the context-only payload.
func NewResponseGenerator(llmClient llm.LLM, opts ...Option) *ResponseGenerator {
	g := &ResponseGenerator{
		llmClient: llmClient,
		model:     "llama3.2",
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate builds the response for the given context. With useLLM=false the
// context passes through with no LLM call. With useLLM=true a single prompt
// embeds all context items and the raw LLM output becomes the explanation;
// LLM failure degrades to the context-only payload. LLM enhancement is
// always additive, never required.
func (g *ResponseGenerator) Generate(ctx context.Context, query string, candidates []retriever.Candidate, useLLM bool) Response {
	resp := Response{Questions: candidates}

	if !useLLM {
		return resp
	}

	if g.llmClient == nil {
		g.logger.Warn("LLM not configured, skipping explanation")
		return resp
	}

	completion, err := g.llmClient.Invoke(ctx, g.buildPrompt(query, candidates), llm.InvokeOptions{
		Model:       g.model,
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		g.logger.Warn("LLM explanation failed, returning context only", "error", err)
		return resp
	}

	resp.Model = completion.Model
	resp.Explanation = completion.Content
	resp.Metadata = completion.Metadata
	return resp
}

// buildPrompt embeds all context item titles and snippets into a single
// tutoring prompt.
func (g *ResponseGenerator) buildPrompt(query string, candidates []retriever.Candidate) string {
	var sb strings.Builder

	sb.WriteString("You are a tutor. Based on the following context questions, generate a summary explanation or thematic insight for the user:\n")
	for _, c := range candidates {
		sb.WriteString(fmt.Sprintf("- %s\n", c.Title))
		if c.Snippet != "" {
			sb.WriteString(fmt.Sprintf("  Notes: %s\n", c.Snippet))
		}
	}
	sb.WriteString("\nUser question: ")
	sb.WriteString(query)
	sb.WriteString("\n")

	return sb.String()
}
