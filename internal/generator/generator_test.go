package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quizmentor/rag/internal/llm"
	"github.com/quizmentor/rag/internal/retriever"
)

type fakeLLM struct {
	completion *llm.Completion
	err        error
	gotPrompt  string
	calls      int
}

func (f *fakeLLM) Invoke(ctx context.Context, prompt string, opts llm.InvokeOptions) (*llm.Completion, error) {
	f.calls++
	f.gotPrompt = prompt
	return f.completion, f.err
}

func candidates() []retriever.Candidate {
	return []retriever.Candidate{
		{Title: "Which article covers emergencies?", Snippet: "Article 352 covers national emergency.", SourcePosition: 1},
		{Title: "Who appoints the governor?", SourcePosition: 2},
	}
}

func TestGenerate_PassthroughWithoutLLM(t *testing.T) {
	client := &fakeLLM{}
	g := NewResponseGenerator(client)

	resp := g.Generate(context.Background(), "query", candidates(), false)

	if client.calls != 0 {
		t.Error("expected no LLM call when use_llm is off")
	}
	if len(resp.Questions) != 2 {
		t.Errorf("expected candidates passed through, got %d", len(resp.Questions))
	}
	if resp.Explanation != "" || resp.Model != "" {
		t.Errorf("expected bare passthrough, got %+v", resp)
	}
}

func TestGenerate_LLMExplanation(t *testing.T) {
	client := &fakeLLM{completion: &llm.Completion{
		Content:  "These questions all concern constitutional emergency powers.",
		Model:    "llama3.2",
		Metadata: map[string]any{"done_reason": "stop"},
	}}
	g := NewResponseGenerator(client)

	resp := g.Generate(context.Background(), "emergency provisions", candidates(), true)

	if resp.Explanation == "" {
		t.Fatal("expected explanation")
	}
	if resp.Model != "llama3.2" {
		t.Errorf("unexpected model: %q", resp.Model)
	}
	if len(resp.Questions) != 2 {
		t.Errorf("explanation should be additive, got %d questions", len(resp.Questions))
	}

	// Prompt should embed titles, notes, and the user question.
	if !strings.Contains(client.gotPrompt, "Which article covers emergencies?") {
		t.Error("expected question title in prompt")
	}
	if !strings.Contains(client.gotPrompt, "Article 352 covers national emergency.") {
		t.Error("expected notes in prompt")
	}
	if !strings.Contains(client.gotPrompt, "emergency provisions") {
		t.Error("expected user question in prompt")
	}
}

func TestGenerate_LLMFailureDegradesToPassthrough(t *testing.T) {
	client := &fakeLLM{err: errors.New("model unavailable")}
	g := NewResponseGenerator(client)

	resp := g.Generate(context.Background(), "query", candidates(), true)

	if len(resp.Questions) != 2 {
		t.Errorf("expected candidates despite LLM failure, got %d", len(resp.Questions))
	}
	if resp.Explanation != "" {
		t.Errorf("did not expect explanation after LLM failure, got %q", resp.Explanation)
	}
}

func TestGenerate_NilClientTolerated(t *testing.T) {
	g := NewResponseGenerator(nil)

	resp := g.Generate(context.Background(), "query", candidates(), true)

	if len(resp.Questions) != 2 {
		t.Errorf("expected candidates with nil client, got %d", len(resp.Questions))
	}
	if resp.Explanation != "" {
		t.Error("did not expect explanation with nil client")
	}
}
