package evaluator

// Insight thresholds bucket each metric into three tiers. Deliberately
// lenient so legitimate LLM elaboration beyond retrieved context is not
// penalized.
const (
	precisionLowThreshold  = 0.4
	precisionHighThreshold = 0.7

	faithfulnessLowThreshold  = 0.3
	faithfulnessHighThreshold = 0.6

	correctnessLowThreshold  = 0.4
	correctnessHighThreshold = 0.7

	relevancyLowThreshold  = 0.4
	relevancyHighThreshold = 0.7
)

// qualityInsights produces one human-readable insight string per metric.
func qualityInsights(r Result) map[string]string {
	insights := make(map[string]string, 4)

	switch {
	case r.ContextPrecision < precisionLowThreshold:
		insights["context_precision"] = "Low context precision -> retriever issue. Consider improving vector search parameters or embedding quality."
	case r.ContextPrecision < precisionHighThreshold:
		insights["context_precision"] = "Moderate context precision. Some retrieved content may not be highly relevant."
	default:
		insights["context_precision"] = "High context precision. Retriever is finding relevant content effectively."
	}

	switch {
	case r.Faithfulness < faithfulnessLowThreshold:
		insights["faithfulness"] = "Low faithfulness -> responses may contain significant information not grounded in context."
	case r.Faithfulness < faithfulnessHighThreshold:
		insights["faithfulness"] = "Moderate faithfulness. Responses include some insights beyond retrieved context (acceptable for LLM)."
	default:
		insights["faithfulness"] = "High faithfulness. Responses are well-grounded with valuable LLM insights."
	}

	switch {
	case r.AnswerCorrectness < correctnessLowThreshold:
		insights["answer_correctness"] = "Low answer correctness -> responses may contain factual errors."
	case r.AnswerCorrectness < correctnessHighThreshold:
		insights["answer_correctness"] = "Moderate answer correctness. Some responses may have minor inaccuracies."
	default:
		insights["answer_correctness"] = "High answer correctness. Generated responses are factually accurate."
	}

	switch {
	case r.ContextRelevancy < relevancyLowThreshold:
		insights["context_relevancy"] = "Low relevancy -> recommendations may not match user intent."
	case r.ContextRelevancy < relevancyHighThreshold:
		insights["context_relevancy"] = "Moderate relevancy. Some recommendations may not be perfectly aligned."
	default:
		insights["context_relevancy"] = "High relevancy. Recommendations are well-aligned with user intent."
	}

	return insights
}

// recommendations produces actionable improvement suggestions for metrics
// below their acceptability thresholds, plus a positive note for strong
// overall scores.
func recommendations(r Result) []string {
	var recs []string

	if r.ContextPrecision < 0.5 {
		recs = append(recs,
			"Improve retriever by adjusting vector search parameters or enhancing embeddings",
			"Consider adding more diverse training data to the vector store")
	} else if r.ContextPrecision < 0.6 {
		recs = append(recs, "Retriever performance is acceptable but could be optimized for better precision")
	}

	if r.Faithfulness < 0.4 {
		recs = append(recs,
			"Consider implementing basic grounding checks in response generation",
			"LLM responses may benefit from more context-aware prompting")
	} else if r.Faithfulness < 0.6 {
		recs = append(recs,
			"Faithfulness is acceptable for LLM-enhanced responses",
			"Consider fine-tuning prompts for better context grounding")
	}

	if r.AnswerCorrectness < 0.5 {
		recs = append(recs,
			"Enhance answer validation using multiple sources",
			"Implement confidence scoring for generated responses")
	} else if r.AnswerCorrectness < 0.6 {
		recs = append(recs, "Answer correctness is acceptable for most use cases")
	}

	if r.ContextRelevancy < 0.5 {
		recs = append(recs,
			"Improve query understanding and intent classification",
			"Add user feedback loops to refine recommendation relevance")
	} else if r.ContextRelevancy < 0.6 {
		recs = append(recs, "Context relevancy is acceptable but could be optimized")
	}

	if r.OverallScore < 0.5 {
		recs = append(recs,
			"Consider comprehensive RAG pipeline optimization",
			"Implement A/B testing for different retrieval strategies")
	} else if r.OverallScore < 0.6 {
		recs = append(recs,
			"Overall performance is acceptable for production use",
			"Consider incremental improvements based on user feedback")
	}

	if r.OverallScore >= 0.7 {
		recs = append(recs, "Excellent RAG performance! Consider documenting best practices")
	}

	return recs
}
