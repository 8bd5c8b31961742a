package evaluator

import (
	"strings"
)

// Heuristic bonus constants. The scoring is deliberately lenient: LLM
// elaboration beyond retrieved context is rewarded, not penalized. Treat
// the exact values as tunable.
const (
	topicalBonus        = 0.1
	entityBonus         = 0.15
	categoryBonus       = 0.1
	lengthBonus         = 0.15
	analyticalWordBonus = 0.05
	thematicBonus       = 0.1
	contextualBonus     = 0.1
	expansionBonus      = 0.1
	intentBonus         = 0.1

	exactMatchBonus     = 0.2
	partialMatchBonus   = 0.1
	conceptBonusCeiling = 0.2

	// Response length ratios considered reasonable LLM expansion.
	minExpansionRatio = 0.5
	maxExpansionRatio = 3.0
)

// faithfulnessStopWords are removed before comparing context and response.
var faithfulnessStopWords = wordSetOf("the a an and or but in on at to for of with by is are was were be been have has had do does did will would could should may might can this that these those")

// correctnessStopWords is the shorter list used for ground-truth comparison.
var correctnessStopWords = wordSetOf("the a an and or but in on at to for of with by")

// Keyword groups used by the semantic bonuses. Substring checks, matching
// the original behavior.
var (
	topicalKeywords    = []string{"current", "affairs", "news", "recent", "latest"}
	entityKeywords     = []string{"modi", "india", "government", "prime minister"}
	categoryQueryWords = []string{"politics", "government", "leaders"}
	categoryCtxWords   = []string{"politics", "government", "leaders", "minister", "prime"}

	analyticalWords = []string{"because", "therefore", "however", "example", "definition", "theme", "overarching", "multifaceted", "influence", "spheres", "identity", "policy", "growth"}
	thematicWords   = []string{"theme", "pattern", "connection", "relationship", "overall"}
	contextualWords = []string{"context", "background", "significance", "meaning", "purpose"}

	analyticalMarkers = []string{"because", "therefore", "however", "example", "definition"}
	directAnswerWords = []string{"is", "are", "was", "were", "can", "will", "does"}

	intentQueryWords   = []string{"what", "how", "when", "where", "why", "explain", "describe"}
	intentContentWords = []string{"information", "details", "facts", "data"}

	relevancyTopicQueryWords = []string{"current", "affairs", "news", "politics", "government"}
	relevancyTopicCtxWords   = []string{"current", "affairs", "news", "politics", "government", "minister", "prime"}
	relevancyEntityWords     = []string{"modi", "india", "government"}
	relevancyEntityCtxWords  = []string{"modi", "india", "government", "minister", "prime"}
)

// contextPrecision measures keyword overlap between the query's important
// words (longer than 3 characters) and each context item, with semantic
// bonuses, averaged across items.
func contextPrecision(query string, contexts []string) float64 {
	if len(contexts) == 0 {
		return 0.0
	}

	queryLower := strings.ToLower(query)
	queryWords := wordSet(query)
	queryImportant := importantWords(queryWords)

	total := 0.0
	for _, ctx := range contexts {
		ctxText := strings.ToLower(ctx)
		ctxWords := wordSet(ctx)

		var score float64
		if len(queryImportant) > 0 {
			score = clamp01(float64(overlap(queryImportant, ctxWords)) / float64(len(queryImportant)))
		} else if len(queryWords) > 0 {
			score = clamp01(float64(overlap(queryWords, ctxWords)) / float64(len(queryWords)))
		}

		bonus := 0.0
		if containsAny(ctxText, topicalKeywords) {
			bonus += topicalBonus
		}
		if containsAny(queryLower, entityKeywords) && containsAny(ctxText, entityKeywords) {
			bonus += entityBonus
		}
		if containsAny(queryLower, categoryQueryWords) && containsAny(ctxText, categoryCtxWords) {
			bonus += categoryBonus
		}

		total += clamp01(score + bonus)
	}

	return total / float64(len(contexts))
}

// faithfulness measures how much of the response is traceable to the
// context: stop-word-filtered word overlap plus lenient bonuses for
// analytical and thematic language and reasonable expansion.
func faithfulness(contexts []string, response string) float64 {
	if len(contexts) == 0 || response == "" {
		return 0.0
	}

	contextText := strings.Join(contexts, " ")
	contextMeaningful := subtract(wordSet(contextText), faithfulnessStopWords)
	responseMeaningful := subtract(wordSet(response), faithfulnessStopWords)

	if len(contextMeaningful) == 0 {
		return 0.0
	}

	responseLower := strings.ToLower(response)
	score := clamp01(float64(overlap(contextMeaningful, responseMeaningful)) / float64(len(contextMeaningful)))

	// Longer responses indicate comprehensive coverage
	if len(response) > 100 {
		score = clamp01(score + lengthBonus)
	}

	// Analytical content is valuable LLM insight, not hallucination
	analyticalCount := 0
	for _, w := range analyticalWords {
		if strings.Contains(responseLower, w) {
			analyticalCount++
		}
	}
	if analyticalCount > 0 {
		score = clamp01(score + float64(analyticalCount)*analyticalWordBonus)
	}

	if containsAny(responseLower, thematicWords) {
		score = clamp01(score + thematicBonus)
	}
	if containsAny(responseLower, contextualWords) {
		score = clamp01(score + contextualBonus)
	}

	// A response 0.5x-3x the context length is reasonable LLM expansion
	if len(contextText) > 0 {
		ratio := float64(len(response)) / float64(len(contextText))
		if ratio >= minExpansionRatio && ratio <= maxExpansionRatio {
			score = clamp01(score + expansionBonus)
		}
	}

	return score
}

// answerCorrectness scores the response against ground truth when given,
// and against structural heuristics when not.
func answerCorrectness(response, groundTruth string) float64 {
	responseLower := strings.ToLower(response)

	if groundTruth == "" {
		score := 0.0

		// Length tiers
		switch {
		case len(response) > 100:
			score += 0.3
		case len(response) > 50:
			score += 0.2
		case len(response) > 20:
			score += 0.1
		}

		// Punctuation structure
		if strings.Contains(response, ".") && strings.Contains(response, ",") {
			score += 0.2
		} else if strings.Contains(response, ".") {
			score += 0.1
		}

		if containsAny(responseLower, analyticalMarkers) {
			score += 0.2
		}
		if containsAny(responseLower, directAnswerWords) {
			score += 0.1
		}

		return clamp01(score)
	}

	truthLower := strings.ToLower(groundTruth)
	responseMeaningful := subtract(wordSet(response), correctnessStopWords)
	truthMeaningful := subtract(wordSet(groundTruth), correctnessStopWords)

	if len(truthMeaningful) == 0 {
		return 0.0
	}

	score := clamp01(float64(overlap(responseMeaningful, truthMeaningful)) / float64(len(truthMeaningful)))

	if strings.Contains(responseLower, truthLower) {
		score = clamp01(score + exactMatchBonus)
	} else if containsAny(responseLower, strings.Split(truthLower, ".")) {
		score = clamp01(score + partialMatchBonus)
	}

	// Concept matches: long ground-truth words found anywhere in the response
	var keyConcepts []string
	for w := range truthMeaningful {
		if len(w) > 4 {
			keyConcepts = append(keyConcepts, w)
		}
	}
	if len(keyConcepts) > 0 {
		matches := 0
		for _, concept := range keyConcepts {
			if strings.Contains(responseLower, concept) {
				matches++
			}
		}
		if matches > 0 {
			bonus := float64(matches) / float64(len(keyConcepts)) * conceptBonusCeiling
			if bonus > conceptBonusCeiling {
				bonus = conceptBonusCeiling
			}
			score = clamp01(score + bonus)
		}
	}

	return score
}

// contextRelevancy is a position-weighted (1/(rank+1)) average of per-item
// relevance to the query, with intent, topic, and entity bonuses,
// normalized by the total position weight.
func contextRelevancy(query string, contexts []string) float64 {
	if len(contexts) == 0 {
		return 0.0
	}

	queryLower := strings.ToLower(query)
	queryWords := wordSet(query)
	queryImportant := importantWords(queryWords)
	if len(queryImportant) == 0 {
		queryImportant = queryWords
	}

	total := 0.0
	totalWeight := 0.0

	for i, ctx := range contexts {
		ctxText := strings.ToLower(ctx)
		ctxWords := wordSet(ctx)

		positionWeight := 1.0 / float64(i+1)

		var relevance float64
		if len(queryImportant) > 0 {
			relevance = clamp01(float64(overlap(queryImportant, ctxWords)) / float64(len(queryImportant)))
		}

		bonus := 0.0
		if containsAny(queryLower, intentQueryWords) && containsAny(ctxText, intentContentWords) {
			bonus += intentBonus
		}
		if containsAny(queryLower, relevancyTopicQueryWords) && containsAny(ctxText, relevancyTopicCtxWords) {
			bonus += topicalBonus
		}
		if containsAny(queryLower, relevancyEntityWords) && containsAny(ctxText, relevancyEntityCtxWords) {
			bonus += entityBonus
		}

		relevance = clamp01(relevance + bonus)

		total += relevance * positionWeight
		totalWeight += positionWeight
	}

	if totalWeight == 0 {
		return 0.0
	}
	return total / totalWeight
}

// wordSet splits text on whitespace into a lowercase word set. Punctuation
// stays attached to words; overlap comparisons rely on identical
// tokenization on both sides.
func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// wordSetOf builds a set from a space-separated literal.
func wordSetOf(words string) map[string]struct{} {
	return wordSet(words)
}

// importantWords keeps words longer than 3 characters.
func importantWords(words map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for w := range words {
		if len(w) > 3 {
			out[w] = struct{}{}
		}
	}
	return out
}

// overlap counts the intersection of two word sets.
func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// subtract returns a minus b.
func subtract(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a))
	for w := range a {
		if _, ok := b[w]; !ok {
			out[w] = struct{}{}
		}
	}
	return out
}

// containsAny reports whether text contains any of the given substrings.
func containsAny(text string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// clamp01 clamps a score into [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
