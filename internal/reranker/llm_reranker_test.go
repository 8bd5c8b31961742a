package reranker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/quizmentor/rag/internal/llm"
	"github.com/quizmentor/rag/internal/retriever"
)

// fakeLLM routes by prompt shape: intent classification, intent-aware
// scoring and semantic scoring each get their own canned response.
type fakeLLM struct {
	mu               sync.Mutex
	semanticResponse string
	intentResponse   string
	classifyResponse string
	err              error
	prompts          []string
}

func (f *fakeLLM) Invoke(ctx context.Context, prompt string, opts llm.InvokeOptions) (*llm.Completion, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	content := f.semanticResponse
	switch {
	case strings.Contains(prompt, "determine the user's intent"):
		content = f.classifyResponse
	case strings.Contains(prompt, "Detected Intent:"):
		content = f.intentResponse
	}

	return &llm.Completion{Content: content, Model: opts.Model}, nil
}

func (f *fakeLLM) promptsSeen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

func makeCandidates(n int) []retriever.Candidate {
	candidates := make([]retriever.Candidate, n)
	for i := range candidates {
		candidates[i] = retriever.Candidate{
			ID:             fmt.Sprintf("q%d", i+1),
			Title:          fmt.Sprintf("Question %d", i+1),
			SourcePosition: i + 1,
			Score:          float32(1.0) - float32(i)*0.1,
		}
	}
	return candidates
}

func scoreOf(t *testing.T, c retriever.Candidate) float64 {
	t.Helper()
	if c.RelevanceScore == nil {
		t.Fatalf("candidate at source position %d has no relevance score", c.SourcePosition)
	}
	return *c.RelevanceScore
}

func TestLLMReranker_SemanticOrdering(t *testing.T) {
	client := &fakeLLM{
		semanticResponse: `[{"position": 3, "relevance_score": 0.9}, {"position": 1, "relevance_score": 0.5}]`,
	}
	r := NewLLMReranker(client)

	candidates := makeCandidates(4)
	out := r.Rerank(context.Background(), "test", candidates, StrategySemanticRelevance, 10)

	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].SourcePosition != 3 || out[0].RerankPosition != 1 {
		t.Errorf("expected source 3 at rerank position 1, got %+v", out[0])
	}
	if out[1].SourcePosition != 1 || out[1].RerankPosition != 2 {
		t.Errorf("expected source 1 at rerank position 2, got %+v", out[1])
	}
	if scoreOf(t, out[0]) != 0.9 || scoreOf(t, out[1]) != 0.5 {
		t.Errorf("unexpected scores: %v, %v", scoreOf(t, out[0]), scoreOf(t, out[1]))
	}
}

func TestLLMReranker_InputNotMutated(t *testing.T) {
	client := &fakeLLM{
		semanticResponse: `[{"position": 2, "relevance_score": 0.9}, {"position": 1, "relevance_score": 0.1}]`,
	}
	r := NewLLMReranker(client)

	candidates := makeCandidates(2)
	_ = r.Rerank(context.Background(), "test", candidates, StrategySemanticRelevance, 10)

	for i, c := range candidates {
		if c.SourcePosition != i+1 {
			t.Errorf("input order changed at index %d: %+v", i, c)
		}
		if c.RelevanceScore != nil || c.RerankPosition != 0 {
			t.Errorf("input candidate %d was mutated: %+v", i, c)
		}
	}
}

func TestLLMReranker_LLMErrorKeepsOriginalOrder(t *testing.T) {
	client := &fakeLLM{err: errors.New("model unavailable")}
	r := NewLLMReranker(client)

	candidates := makeCandidates(3)
	out := r.Rerank(context.Background(), "test", candidates, StrategySemanticRelevance, 10)

	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	for i, c := range out {
		if c.SourcePosition != i+1 {
			t.Errorf("expected original order at index %d, got source position %d", i, c.SourcePosition)
		}
		// Unscored candidates get decaying synthetic scores.
		want := math.Max(0.1, 1.0-float64(i)*0.1)
		if got := scoreOf(t, c); got != want {
			t.Errorf("expected fallback score %v at index %d, got %v", want, i, got)
		}
		if c.RerankPosition != i+1 {
			t.Errorf("expected rerank position %d, got %d", i+1, c.RerankPosition)
		}
	}
}

func TestLLMReranker_GarbageResponseKeepsOriginalOrder(t *testing.T) {
	client := &fakeLLM{semanticResponse: "I cannot rank these results, sorry."}
	r := NewLLMReranker(client)

	candidates := makeCandidates(3)
	out := r.Rerank(context.Background(), "test", candidates, StrategySemanticRelevance, 10)

	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	for i, c := range out {
		if c.SourcePosition != i+1 {
			t.Errorf("expected original order at index %d, got source position %d", i, c.SourcePosition)
		}
	}
}

func TestLLMReranker_UnknownPositionsDropped(t *testing.T) {
	client := &fakeLLM{
		semanticResponse: `[{"position": 99, "relevance_score": 0.9}, {"position": 2, "relevance_score": 0.8}]`,
	}
	r := NewLLMReranker(client)

	out := r.Rerank(context.Background(), "test", makeCandidates(3), StrategySemanticRelevance, 10)

	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	if out[0].SourcePosition != 2 {
		t.Errorf("expected source position 2, got %d", out[0].SourcePosition)
	}
}

func TestLLMReranker_AllUnknownPositionsFallsBack(t *testing.T) {
	client := &fakeLLM{
		semanticResponse: `[{"position": 98, "relevance_score": 0.9}, {"position": 99, "relevance_score": 0.8}]`,
	}
	r := NewLLMReranker(client)

	candidates := makeCandidates(3)
	out := r.Rerank(context.Background(), "test", candidates, StrategySemanticRelevance, 10)

	if len(out) != 3 {
		t.Fatalf("expected original 3 results, got %d", len(out))
	}
	for i, c := range out {
		if c.SourcePosition != i+1 {
			t.Errorf("expected original order at index %d, got source position %d", i, c.SourcePosition)
		}
	}
}

func TestLLMReranker_NumResultsTruncates(t *testing.T) {
	client := &fakeLLM{
		semanticResponse: `[{"position": 1, "relevance_score": 0.9}, {"position": 2, "relevance_score": 0.8}, {"position": 3, "relevance_score": 0.7}]`,
	}
	r := NewLLMReranker(client)

	out := r.Rerank(context.Background(), "test", makeCandidates(3), StrategySemanticRelevance, 2)

	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].SourcePosition != 1 || out[1].SourcePosition != 2 {
		t.Errorf("unexpected truncated order: %d, %d", out[0].SourcePosition, out[1].SourcePosition)
	}
}

func TestLLMReranker_EmptyCandidates(t *testing.T) {
	client := &fakeLLM{}
	r := NewLLMReranker(client)

	out := r.Rerank(context.Background(), "test", nil, StrategySemanticRelevance, 5)
	if len(out) != 0 {
		t.Errorf("expected empty result, got %d", len(out))
	}
	if len(client.promptsSeen()) != 0 {
		t.Error("expected no LLM calls for empty input")
	}
}

func TestLLMReranker_HybridBlendsScores(t *testing.T) {
	client := &fakeLLM{
		semanticResponse: `[{"position": 1, "relevance_score": 1.0}, {"position": 2, "relevance_score": 0.5}]`,
		intentResponse:   `[{"position": 2, "relevance_score": 1.0}]`,
		classifyResponse: "comparison",
	}
	r := NewLLMReranker(client)

	out := r.Rerank(context.Background(), "compare A and B", makeCandidates(2), StrategyHybrid, 10)

	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}

	// Position 1: 0.7*1.0 + 0.3*0.0 (missing in intent pass counts as zero).
	// Position 2: 0.7*0.5 + 0.3*1.0.
	wantByPosition := map[int]float64{
		1: 0.7*1.0 + 0.3*0.0,
		2: 0.7*0.5 + 0.3*1.0,
	}
	for _, c := range out {
		want := wantByPosition[c.SourcePosition]
		if got := scoreOf(t, c); math.Abs(got-want) > 1e-9 {
			t.Errorf("position %d: expected blended score %v, got %v", c.SourcePosition, want, got)
		}
	}
	if out[0].SourcePosition != 1 {
		t.Errorf("expected position 1 ranked first, got %d", out[0].SourcePosition)
	}
}

func TestLLMReranker_IntentDefaultsToFactual(t *testing.T) {
	client := &fakeLLM{
		classifyResponse: "banana",
		intentResponse:   `[{"position": 1, "relevance_score": 0.9}]`,
	}
	r := NewLLMReranker(client)

	_ = r.Rerank(context.Background(), "what is X", makeCandidates(1), StrategyQueryIntent, 10)

	var sawFactual bool
	for _, p := range client.promptsSeen() {
		if strings.Contains(p, "Detected Intent: factual") {
			sawFactual = true
		}
	}
	if !sawFactual {
		t.Error("expected scoring prompt to default to factual intent")
	}
}

func TestLLMReranker_IntentAcceptsQuotedAnswer(t *testing.T) {
	client := &fakeLLM{
		classifyResponse: `"How_To".`,
		intentResponse:   `[{"position": 1, "relevance_score": 0.9}]`,
	}
	r := NewLLMReranker(client)

	_ = r.Rerank(context.Background(), "how do I deploy", makeCandidates(1), StrategyQueryIntent, 10)

	var sawHowTo bool
	for _, p := range client.promptsSeen() {
		if strings.Contains(p, "Detected Intent: how_to") {
			sawHowTo = true
		}
	}
	if !sawHowTo {
		t.Error("expected classifier answer to be normalized to how_to")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name   string
		want   Strategy
		wantOK bool
	}{
		{"semantic_relevance", StrategySemanticRelevance, true},
		{"query_intent", StrategyQueryIntent, true},
		{"hybrid", StrategyHybrid, true},
		{"", StrategySemanticRelevance, true},
		{"bogus", StrategySemanticRelevance, false},
	}

	for _, tt := range tests {
		got, ok := ParseStrategy(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseStrategy(%q) = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStrategyString(t *testing.T) {
	if StrategySemanticRelevance.String() != "semantic_relevance" {
		t.Errorf("unexpected name: %s", StrategySemanticRelevance)
	}
	if StrategyQueryIntent.String() != "query_intent" {
		t.Errorf("unexpected name: %s", StrategyQueryIntent)
	}
	if StrategyHybrid.String() != "hybrid" {
		t.Errorf("unexpected name: %s", StrategyHybrid)
	}
}

func TestMetrics(t *testing.T) {
	reranked := []retriever.Candidate{
		{SourcePosition: 3, RerankPosition: 1}, // moved up 2
		{SourcePosition: 1, RerankPosition: 2}, // moved down 1
		{SourcePosition: 2, RerankPosition: 3}, // moved down 1
		{SourcePosition: 4, RerankPosition: 4}, // unchanged
	}

	m := Metrics(reranked)

	if m.TotalResults != 4 {
		t.Errorf("expected 4 total results, got %d", m.TotalResults)
	}
	if m.ResultsImproved != 1 || m.ResultsWorsened != 2 || m.ResultsUnchanged != 1 {
		t.Errorf("unexpected movement counts: %+v", m)
	}
	if m.AveragePositionImprovement != 0.0 {
		t.Errorf("expected average improvement 0.0, got %v", m.AveragePositionImprovement)
	}
	if m.ImprovementRate != 25.0 {
		t.Errorf("expected improvement rate 25.0, got %v", m.ImprovementRate)
	}
}

func TestMetrics_Empty(t *testing.T) {
	m := Metrics(nil)
	if m.TotalResults != 0 || m.ImprovementRate != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
}
