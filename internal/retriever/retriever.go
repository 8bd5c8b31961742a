// Package retriever turns a user query into a ranked list of candidate
// questions from the vector index.
package retriever

import (
	"context"
	"fmt"

	"github.com/quizmentor/rag/internal/embedder"
	"github.com/quizmentor/rag/internal/vectorstore"
)

// Candidate is a single retrieved question under consideration for ranking
// and answer construction.
//
// SourcePosition is the 1-based rank assigned by the retriever for the
// current call. It is the sole stable key used to map reranked output back
// to original candidates and must be preserved verbatim through reranking.
type Candidate struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Snippet        string            `json:"snippet,omitempty"`
	SourcePosition int               `json:"position"`
	Score          float32           `json:"score"`
	RelevanceScore *float64          `json:"relevance_score,omitempty"`
	RerankPosition int               `json:"rerank_position,omitempty"`
	Meta           map[string]string `json:"metadata,omitempty"`
}

// Retriever defines the interface for candidate retrieval.
type Retriever interface {
	// Retrieve returns up to topK candidates sorted descending by
	// similarity, each with a fresh 1-based SourcePosition. The optional
	// filter restricts results by payload fields (e.g. topic, difficulty).
	// An empty result is valid; index or embedding failures are returned
	// as errors and are fatal for the request.
	Retrieve(ctx context.Context, query string, topK int, filter map[string]string) ([]Candidate, error)
}

// VectorRetriever implements Retriever on top of an embedder and a vector store.
type VectorRetriever struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
}

// NewVectorRetriever creates a new vector-backed retriever.
func NewVectorRetriever(e embedder.Embedder, store vectorstore.VectorStore) *VectorRetriever {
	return &VectorRetriever{embedder: e, store: store}
}

// Retrieve embeds the query and searches the index. SourcePosition is
// re-assigned on every call; retrieval rank is call-scoped, not a
// persistent identity.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int, filter map[string]string) ([]Candidate, error) {
	vector, err := r.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.RetrieveVector(ctx, vector, topK, filter)
}

// Embed produces the query vector for later retrieval.
func (r *VectorRetriever) Embed(ctx context.Context, query string) ([]float32, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector, nil
}

// RetrieveVector searches the index with an already-embedded query.
func (r *VectorRetriever) RetrieveVector(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]Candidate, error) {
	hits, err := r.store.Query(ctx, vector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	candidates := make([]Candidate, 0, len(hits))
	for i, hit := range hits {
		candidates = append(candidates, fromHit(hit, i+1))
	}

	return candidates, nil
}

// fromHit maps a vector store hit onto a Candidate. The question text and
// notes become title and snippet; remaining payload fields (options,
// answer, topic, difficulty, date) are carried through as metadata.
func fromHit(hit vectorstore.SearchHit, position int) Candidate {
	c := Candidate{
		ID:             hit.ID,
		SourcePosition: position,
		Score:          hit.Score,
		Meta:           make(map[string]string),
	}

	for k, v := range hit.Payload {
		switch k {
		case "question":
			c.Title = v
		case "notes":
			c.Snippet = v
		default:
			c.Meta[k] = v
		}
	}

	return c
}

// Ensure VectorRetriever implements Retriever.
var _ Retriever = (*VectorRetriever)(nil)
