package reranker

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PositionScore is one entry of the LLM's reranking output.
type PositionScore struct {
	Position       int      `json:"position"`
	RelevanceScore *float64 `json:"relevance_score"`
}

// ExtractJSONArray parses an LLM response that is supposed to be a bare
// JSON array of {"position": N, "relevance_score": F} objects.
//
// LLMs routinely wrap JSON in prose or markdown fences, so the substring
// between the first '[' and the last ']' is parsed rather than the whole
// response. Elements that are not objects or lack a valid position are
// dropped; a response with no parseable array is an error.
func ExtractJSONArray(raw string) ([]PositionScore, error) {
	cleaned := strings.TrimSpace(raw)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &elements); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}

	entries := make([]PositionScore, 0, len(elements))
	for _, el := range elements {
		var entry PositionScore
		if err := json.Unmarshal(el, &entry); err != nil {
			continue
		}
		if entry.Position < 1 {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
