// Package reranker re-orders retrieved candidates by an LLM's judgment of
// relevance to the query.
//
// Reranking is strictly best-effort: an LLM failure or an unparseable
// response degrades to the original retrieval order, never to an error or
// an empty result. Losing the reranking signal must not lose results.
package reranker

import (
	"context"
	"math"

	"github.com/quizmentor/rag/internal/retriever"
)

// Strategy selects how candidates are re-scored.
type Strategy int

const (
	// StrategySemanticRelevance scores candidates on pure content
	// relevance in a single LLM call.
	StrategySemanticRelevance Strategy = iota

	// StrategyQueryIntent classifies the query's intent first, then scores
	// candidates with an intent-aware prompt.
	StrategyQueryIntent

	// StrategyHybrid runs both passes on the same original candidate list
	// and blends their scores.
	StrategyHybrid
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyQueryIntent:
		return "query_intent"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "semantic_relevance"
	}
}

// ParseStrategy maps a wire name to a Strategy. Unknown names report
// ok=false and default to semantic relevance.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "semantic_relevance", "":
		return StrategySemanticRelevance, true
	case "query_intent":
		return StrategyQueryIntent, true
	case "hybrid":
		return StrategyHybrid, true
	default:
		return StrategySemanticRelevance, false
	}
}

// Reranker defines the interface for re-ranking retrieved candidates.
type Reranker interface {
	// Rerank re-orders and scores candidates under the given strategy and
	// returns up to numResults of them (all when numResults <= 0), sorted
	// descending by relevance score with fresh 1-based rerank positions.
	// SourcePosition is preserved verbatim from the input. The input slice
	// is never modified. Rerank never fails: on any LLM or parse error the
	// original candidates are returned unchanged.
	Rerank(ctx context.Context, query string, candidates []retriever.Candidate, strategy Strategy, numResults int) []retriever.Candidate
}

// RerankMetrics summarizes how much reranking moved candidates relative to
// their retrieval order.
type RerankMetrics struct {
	TotalResults               int     `json:"total_results"`
	AveragePositionImprovement float64 `json:"average_position_improvement"`
	ResultsImproved            int     `json:"results_improved"`
	ResultsWorsened            int     `json:"results_worsened"`
	ResultsUnchanged           int     `json:"results_unchanged"`
	ImprovementRate            float64 `json:"improvement_rate"`
}

// Metrics computes position-change statistics for a reranked list. A
// positive change means the candidate moved up relative to its retrieval
// position.
func Metrics(reranked []retriever.Candidate) RerankMetrics {
	if len(reranked) == 0 {
		return RerankMetrics{}
	}

	var sum int
	var improved, worsened, unchanged int
	for _, c := range reranked {
		change := c.SourcePosition - c.RerankPosition
		sum += change
		switch {
		case change > 0:
			improved++
		case change < 0:
			worsened++
		default:
			unchanged++
		}
	}

	n := len(reranked)
	return RerankMetrics{
		TotalResults:               n,
		AveragePositionImprovement: math.Round(float64(sum)/float64(n)*100) / 100,
		ResultsImproved:            improved,
		ResultsWorsened:            worsened,
		ResultsUnchanged:           unchanged,
		ImprovementRate:            math.Round(float64(improved)/float64(n)*1000) / 10,
	}
}
