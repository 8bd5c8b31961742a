package reranker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/quizmentor/rag/internal/llm"
	"github.com/quizmentor/rag/internal/retriever"
)

const (
	// hybridSemanticWeight and hybridIntentWeight blend the two passes of
	// the hybrid strategy. Tunable, not derived.
	hybridSemanticWeight = 0.7
	hybridIntentWeight   = 0.3

	// rerankTemperature keeps scoring consistent across calls.
	rerankTemperature = 0.1

	// rerankMaxTokens bounds the JSON score array response.
	rerankMaxTokens = 1000
)

// Intent is a coarse classification of what the user is trying to do.
type Intent string

const (
	IntentFactual     Intent = "factual"
	IntentHowTo       Intent = "how_to"
	IntentComparison  Intent = "comparison"
	IntentExplanation Intent = "explanation"
	IntentExamples    Intent = "examples"
	IntentResearch    Intent = "research"
)

// knownIntents is the closed taxonomy accepted from the classifier.
var knownIntents = map[Intent]bool{
	IntentFactual:     true,
	IntentHowTo:       true,
	IntentComparison:  true,
	IntentExplanation: true,
	IntentExamples:    true,
	IntentResearch:    true,
}

// LLMReranker implements Reranker using LLM-as-judge scoring.
type LLMReranker struct {
	llmClient llm.LLM
	model     string
	logger    *slog.Logger
}

// LLMRerankerOption is a functional option for configuring LLMReranker.
type LLMRerankerOption func(*LLMReranker)

// WithModel sets the model to use for reranking.
func WithModel(model string) LLMRerankerOption {
	return func(r *LLMReranker) {
		r.model = model
	}
}

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *slog.Logger) LLMRerankerOption {
	return func(r *LLMReranker) {
		r.logger = logger
	}
}

// NewLLMReranker creates a new LLM-based reranker.
func NewLLMReranker(llmClient llm.LLM, opts ...LLMRerankerOption) *LLMReranker {
	r := &LLMReranker{
		llmClient: llmClient,
		model:     "llama3.2",
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Rerank re-orders candidates under the given strategy. It never fails and
// never mutates its input; every degradation path returns the original
// ordering.
func (r *LLMReranker) Rerank(ctx context.Context, query string, candidates []retriever.Candidate, strategy Strategy, numResults int) []retriever.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	var reranked []retriever.Candidate
	switch strategy {
	case StrategySemanticRelevance:
		reranked = r.semanticPass(ctx, query, candidates)
	case StrategyQueryIntent:
		reranked = r.intentPass(ctx, query, candidates)
	case StrategyHybrid:
		reranked = r.hybridPass(ctx, query, candidates)
	default:
		r.logger.Warn("unknown reranking strategy, using semantic relevance", "strategy", strategy)
		reranked = r.semanticPass(ctx, query, candidates)
	}

	return finalize(reranked, numResults, r.logger)
}

// finalize assigns fresh rerank positions, fills decaying synthetic scores
// for candidates the LLM left unscored, and truncates to numResults.
func finalize(reranked []retriever.Candidate, numResults int, logger *slog.Logger) []retriever.Candidate {
	out := make([]retriever.Candidate, len(reranked))
	copy(out, reranked)

	for i := range out {
		if out[i].RelevanceScore == nil {
			score := math.Max(0.1, 1.0-float64(i)*0.1)
			out[i].RelevanceScore = &score
			logger.Warn("assigned fallback relevance score",
				"position", out[i].SourcePosition,
				"score", score,
			)
		}
		out[i].RerankPosition = i + 1
	}

	if numResults > 0 && len(out) > numResults {
		out = out[:numResults]
	}

	return out
}

// semanticPass scores candidates on pure content relevance.
func (r *LLMReranker) semanticPass(ctx context.Context, query string, candidates []retriever.Candidate) []retriever.Candidate {
	prompt := r.buildSemanticPrompt(query, candidates)
	return r.scoreWithPrompt(ctx, prompt, candidates)
}

// intentPass classifies the query's intent and scores candidates against it.
func (r *LLMReranker) intentPass(ctx context.Context, query string, candidates []retriever.Candidate) []retriever.Candidate {
	intent := r.classifyIntent(ctx, query)
	prompt := r.buildIntentPrompt(query, intent, candidates)
	return r.scoreWithPrompt(ctx, prompt, candidates)
}

// hybridPass runs the semantic and intent passes independently over the
// same original candidate list and blends their scores. The two passes have
// no data dependency and run concurrently.
func (r *LLMReranker) hybridPass(ctx context.Context, query string, candidates []retriever.Candidate) []retriever.Candidate {
	var semantic, intent []retriever.Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		semantic = r.semanticPass(gctx, query, candidates)
		return nil
	})
	g.Go(func() error {
		intent = r.intentPass(gctx, query, candidates)
		return nil
	})
	_ = g.Wait() // passes degrade internally, never error

	semanticScores := scoresByPosition(semantic)
	intentScores := scoresByPosition(intent)

	combined := make([]retriever.Candidate, len(candidates))
	copy(combined, candidates)
	for i := range combined {
		score := semanticScores[combined[i].SourcePosition]*hybridSemanticWeight +
			intentScores[combined[i].SourcePosition]*hybridIntentWeight
		combined[i].RelevanceScore = &score
	}

	sortByScore(combined)
	return combined
}

// scoreWithPrompt invokes the LLM, parses its score array, and applies the
// scores to copies of the matching candidates. Every failure mode returns
// the original list unchanged.
func (r *LLMReranker) scoreWithPrompt(ctx context.Context, prompt string, candidates []retriever.Candidate) []retriever.Candidate {
	completion, err := r.llmClient.Invoke(ctx, prompt, llm.InvokeOptions{
		Model:       r.model,
		Temperature: rerankTemperature,
		MaxTokens:   rerankMaxTokens,
	})
	if err != nil {
		r.logger.Warn("LLM reranking call failed, keeping original order", "error", err)
		return candidates
	}

	entries, err := ExtractJSONArray(completion.Content)
	if err != nil {
		r.logger.Warn("failed to parse reranking response, keeping original order", "error", err)
		return candidates
	}

	byPosition := make(map[int]int, len(candidates))
	for i, c := range candidates {
		byPosition[c.SourcePosition] = i
	}

	scored := make([]retriever.Candidate, 0, len(entries))
	for _, entry := range entries {
		idx, ok := byPosition[entry.Position]
		if !ok {
			r.logger.Warn("reranking response references unknown position", "position", entry.Position)
			continue
		}

		c := candidates[idx]
		score := 0.0
		if entry.RelevanceScore != nil {
			score = *entry.RelevanceScore
		}
		c.RelevanceScore = &score
		scored = append(scored, c)
	}

	if len(scored) == 0 {
		r.logger.Warn("reranking response contained no usable entries, keeping original order")
		return candidates
	}

	sortByScore(scored)
	return scored
}

// classifyIntent asks the LLM for one of the known intent categories.
// Any failure or out-of-taxonomy answer defaults to factual.
func (r *LLMReranker) classifyIntent(ctx context.Context, query string) Intent {
	prompt := fmt.Sprintf(`Analyze this search query and determine the user's intent:
Query: "%s"

Choose from these intent categories:
- "factual": Looking for specific facts or definitions
- "how_to": Wanting instructions or tutorials
- "comparison": Comparing options or concepts
- "explanation": Seeking detailed explanations
- "examples": Looking for examples or use cases
- "research": Academic or in-depth research

Return ONLY the intent category, nothing else.`, query)

	completion, err := r.llmClient.Invoke(ctx, prompt, llm.InvokeOptions{
		Model:       r.model,
		Temperature: rerankTemperature,
	})
	if err != nil {
		r.logger.Warn("intent classification failed, defaulting to factual", "error", err)
		return IntentFactual
	}

	intent := Intent(strings.ToLower(strings.Trim(strings.TrimSpace(completion.Content), `"'.`)))
	if !knownIntents[intent] {
		r.logger.Warn("intent classification returned unknown category, defaulting to factual", "intent", string(intent))
		return IntentFactual
	}

	return intent
}

// buildSemanticPrompt asks for pure content-relevance scoring.
func (r *LLMReranker) buildSemanticPrompt(query string, candidates []retriever.Candidate) string {
	var sb strings.Builder

	sb.WriteString("You are an expert search result reranker. Given a query and search results, ")
	sb.WriteString("reorder them by relevance and assign relevance scores (0.0 to 1.0).\n\n")
	sb.WriteString(fmt.Sprintf("Query: %q\n\n", query))
	sb.WriteString("Search Results:\n")
	sb.WriteString(formatCandidates(candidates))
	sb.WriteString(`Instructions:
1. Analyze each result's relevance to the query
2. Assign a relevance score (0.0 to 1.0) to each result
3. Reorder results from most relevant to least relevant
4. Consider: title relevance, snippet content, and overall usefulness

Return ONLY a JSON array with this exact format:
[
    {"position": 1, "relevance_score": 0.95},
    {"position": 3, "relevance_score": 0.87},
    {"position": 2, "relevance_score": 0.82}
]

Do not include any other text, just the JSON array.`)

	return sb.String()
}

// buildIntentPrompt asks for intent-aware scoring.
func (r *LLMReranker) buildIntentPrompt(query string, intent Intent, candidates []retriever.Candidate) string {
	var sb strings.Builder

	sb.WriteString("You are an expert at understanding user search intent and reranking results accordingly.\n\n")
	sb.WriteString(fmt.Sprintf("Query: %q\n", query))
	sb.WriteString(fmt.Sprintf("Detected Intent: %s\n\n", intent))
	sb.WriteString("Search Results:\n")
	sb.WriteString(formatCandidates(candidates))
	sb.WriteString(fmt.Sprintf(`Instructions:
1. Consider the user's intent: %s
2. Rerank results based on what the user is likely looking for
3. Assign relevance scores (0.0 to 1.0) considering intent
4. Prioritize results that best match the user's goal

Return ONLY a JSON array with this exact format:
[
    {"position": 1, "relevance_score": 0.92},
    {"position": 3, "relevance_score": 0.88},
    {"position": 2, "relevance_score": 0.85}
]

Do not include any other text, just the JSON array.`, intent))

	return sb.String()
}

// formatCandidates lists candidates with their source positions for the LLM.
func formatCandidates(candidates []retriever.Candidate) string {
	var sb strings.Builder
	for i, c := range candidates {
		// Truncate snippets to avoid token limits
		snippet := c.Snippet
		if len(snippet) > 500 {
			snippet = snippet[:500] + "..."
		}
		sb.WriteString(fmt.Sprintf("%d. Title: %s\n", i+1, c.Title))
		sb.WriteString(fmt.Sprintf("   Snippet: %s\n", snippet))
		sb.WriteString(fmt.Sprintf("   Position: %d\n\n", c.SourcePosition))
	}
	return sb.String()
}

// scoresByPosition indexes relevance scores by source position; candidates
// without a score are absent (treated as 0.0 by the hybrid blend).
func scoresByPosition(candidates []retriever.Candidate) map[int]float64 {
	scores := make(map[int]float64, len(candidates))
	for _, c := range candidates {
		if c.RelevanceScore != nil {
			scores[c.SourcePosition] = *c.RelevanceScore
		}
	}
	return scores
}

// sortByScore sorts candidates descending by relevance score, treating a
// missing score as 0. The sort is stable so ties keep retrieval order.
func sortByScore(candidates []retriever.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		var si, sj float64
		if candidates[i].RelevanceScore != nil {
			si = *candidates[i].RelevanceScore
		}
		if candidates[j].RelevanceScore != nil {
			sj = *candidates[j].RelevanceScore
		}
		return si > sj
	})
}

// Ensure LLMReranker implements Reranker interface.
var _ Reranker = (*LLMReranker)(nil)
