package evaluator

import (
	"math"
	"testing"
)

func TestFaithfulness_RewardsGroundedExpansion(t *testing.T) {
	contexts := []string{"AI is tech that mimics human intelligence."}
	response := "AI is technology that mimics human intelligence and learns from data."

	score := faithfulness(contexts, response)

	// A response that elaborates on the context should not be punished
	// as hallucination.
	if score <= 0.5 {
		t.Errorf("expected score above 0.5 for grounded expansion, got %v", score)
	}
	if score > 1.0 {
		t.Errorf("score %v exceeds 1.0", score)
	}
}

func TestFaithfulness_EmptyInputs(t *testing.T) {
	if got := faithfulness(nil, "some response"); got != 0.0 {
		t.Errorf("expected 0.0 for no context, got %v", got)
	}
	if got := faithfulness([]string{"context"}, ""); got != 0.0 {
		t.Errorf("expected 0.0 for empty response, got %v", got)
	}
}

func TestFaithfulness_UnrelatedResponseScoresLow(t *testing.T) {
	contexts := []string{"The capital of France is Paris."}
	response := "Bananas grow in tropical climates."

	grounded := faithfulness(contexts, "The capital of France is Paris, a major European city.")
	unrelated := faithfulness(contexts, response)

	if unrelated >= grounded {
		t.Errorf("unrelated response (%v) should score below grounded response (%v)", unrelated, grounded)
	}
}

func TestContextPrecision_EmptyContexts(t *testing.T) {
	if got := contextPrecision("any query", nil); got != 0.0 {
		t.Errorf("expected 0.0, got %v", got)
	}
}

func TestContextPrecision_OverlapScoring(t *testing.T) {
	query := "constitutional amendments parliament"
	relevant := contextPrecision(query, []string{"constitutional amendments passed by parliament"})
	irrelevant := contextPrecision(query, []string{"rainfall patterns in coastal regions"})

	if relevant <= irrelevant {
		t.Errorf("relevant context (%v) should outscore irrelevant context (%v)", relevant, irrelevant)
	}
	if relevant > 1.0 || irrelevant < 0.0 {
		t.Errorf("scores out of bounds: %v, %v", relevant, irrelevant)
	}
}

func TestContextPrecision_EntityBonus(t *testing.T) {
	query := "policies of the Modi government"
	withEntity := contextPrecision(query, []string{"Modi government announced new policies"})
	withoutEntity := contextPrecision(query, []string{"new policies announced recently by officials"})

	if withEntity <= withoutEntity {
		t.Errorf("entity-matching context (%v) should outscore plain context (%v)", withEntity, withoutEntity)
	}
}

func TestAnswerCorrectness_NoGroundTruthStructural(t *testing.T) {
	// Long, punctuated, analytical response hits every structural bonus.
	rich := "The amendment was passed because parliament approved it, and therefore it is now law. For example, several states ratified it within a year, which is significant."
	score := answerCorrectness(rich, "")
	if math.Abs(score-0.8) > 1e-9 {
		t.Errorf("expected 0.8 for structurally rich response, got %v", score)
	}

	if got := answerCorrectness("ok", ""); got != 0.0 {
		t.Errorf("expected 0.0 for bare response, got %v", got)
	}
}

func TestAnswerCorrectness_GroundTruthExactMatch(t *testing.T) {
	truth := "parliament passed the amendment"
	exact := answerCorrectness("Yes, parliament passed the amendment last year.", truth)
	partial := answerCorrectness("The amendment was passed.", truth)

	if exact <= partial {
		t.Errorf("exact-match response (%v) should outscore partial response (%v)", exact, partial)
	}
	if exact > 1.0 {
		t.Errorf("score %v exceeds 1.0", exact)
	}
}

func TestAnswerCorrectness_EmptyGroundTruthWords(t *testing.T) {
	// Ground truth made only of stop words has no meaningful words to match.
	if got := answerCorrectness("anything at all", "the and of"); got != 0.0 {
		t.Errorf("expected 0.0, got %v", got)
	}
}

func TestContextRelevancy_PositionWeighting(t *testing.T) {
	query := "constitutional amendments parliament"
	relevant := "constitutional amendments passed by parliament"
	irrelevant := "rainfall patterns in coastal regions"

	relevantFirst := contextRelevancy(query, []string{relevant, irrelevant})
	relevantLast := contextRelevancy(query, []string{irrelevant, relevant})

	// The same items should score higher when the relevant one is ranked
	// first: rank 1 carries weight 1.0, rank 2 carries 0.5.
	if relevantFirst <= relevantLast {
		t.Errorf("relevant-first (%v) should outscore relevant-last (%v)", relevantFirst, relevantLast)
	}
}

func TestContextRelevancy_EmptyContexts(t *testing.T) {
	if got := contextRelevancy("query", nil); got != 0.0 {
		t.Errorf("expected 0.0, got %v", got)
	}
}

func TestWordSet_KeepsPunctuationAttached(t *testing.T) {
	set := wordSet("Intelligence. intelligence")
	if _, ok := set["intelligence."]; !ok {
		t.Error("expected token with trailing period")
	}
	if _, ok := set["intelligence"]; !ok {
		t.Error("expected bare token")
	}
	if len(set) != 2 {
		t.Errorf("expected 2 distinct tokens, got %d", len(set))
	}
}

func TestImportantWords(t *testing.T) {
	words := importantWords(wordSet("the cat sat on parliament today"))
	if _, ok := words["cat"]; ok {
		t.Error("short word should be filtered")
	}
	if _, ok := words["parliament"]; !ok {
		t.Error("long word should be kept")
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-0.5, 0.0},
		{0.0, 0.0},
		{0.42, 0.42},
		{1.0, 1.0},
		{1.7, 1.0},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
