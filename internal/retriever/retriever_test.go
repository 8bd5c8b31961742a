package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/quizmentor/rag/internal/vectorstore"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, f.err
}

func (f *fakeEmbedder) Dimension() int    { return len(f.vector) }
func (f *fakeEmbedder) ModelName() string { return "fake" }

type fakeStore struct {
	hits      []vectorstore.SearchHit
	err       error
	gotTopK   int
	gotFilter map[string]string
}

func (f *fakeStore) EnsureCollection(ctx context.Context, dimension int) error { return nil }

func (f *fakeStore) Upsert(ctx context.Context, points []vectorstore.QuestionPoint) error {
	return nil
}

func (f *fakeStore) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]vectorstore.SearchHit, error) {
	f.gotTopK = topK
	f.gotFilter = filter
	return f.hits, f.err
}

func TestVectorRetriever_AssignsSourcePositions(t *testing.T) {
	store := &fakeStore{hits: []vectorstore.SearchHit{
		{ID: "x", Score: 0.9, Payload: map[string]string{"question": "Q1"}},
		{ID: "y", Score: 0.8, Payload: map[string]string{"question": "Q2"}},
		{ID: "z", Score: 0.7, Payload: map[string]string{"question": "Q3"}},
	}}
	r := NewVectorRetriever(&fakeEmbedder{vector: []float32{0.1}}, store)

	candidates, err := r.Retrieve(context.Background(), "query", 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}
	for i, c := range candidates {
		if c.SourcePosition != i+1 {
			t.Errorf("candidate %d: expected source position %d, got %d", i, i+1, c.SourcePosition)
		}
	}
	if store.gotTopK != 3 {
		t.Errorf("expected topK 3 passed through, got %d", store.gotTopK)
	}
}

func TestVectorRetriever_PayloadMapping(t *testing.T) {
	store := &fakeStore{hits: []vectorstore.SearchHit{
		{ID: "x", Score: 0.9, Payload: map[string]string{
			"question":   "Which article covers emergencies?",
			"notes":      "Article 352 covers national emergency.",
			"answer":     "Article 352",
			"topic":      "polity",
			"difficulty": "medium",
		}},
	}}
	r := NewVectorRetriever(&fakeEmbedder{vector: []float32{0.1}}, store)

	candidates, err := r.Retrieve(context.Background(), "query", 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := candidates[0]
	if c.Title != "Which article covers emergencies?" {
		t.Errorf("unexpected title: %q", c.Title)
	}
	if c.Snippet != "Article 352 covers national emergency." {
		t.Errorf("unexpected snippet: %q", c.Snippet)
	}
	if c.Meta["answer"] != "Article 352" || c.Meta["topic"] != "polity" || c.Meta["difficulty"] != "medium" {
		t.Errorf("unexpected metadata: %v", c.Meta)
	}
	if _, ok := c.Meta["question"]; ok {
		t.Error("question should not be duplicated into metadata")
	}
}

func TestVectorRetriever_FilterPassthrough(t *testing.T) {
	store := &fakeStore{}
	r := NewVectorRetriever(&fakeEmbedder{vector: []float32{0.1}}, store)

	_, err := r.Retrieve(context.Background(), "query", 5, map[string]string{"topic": "history"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.gotFilter["topic"] != "history" {
		t.Errorf("expected filter passed through, got %v", store.gotFilter)
	}
}

func TestVectorRetriever_EmbedError(t *testing.T) {
	r := NewVectorRetriever(&fakeEmbedder{err: errors.New("model missing")}, &fakeStore{})

	if _, err := r.Retrieve(context.Background(), "query", 5, nil); err == nil {
		t.Error("expected error from embedder")
	}
}

func TestVectorRetriever_StoreError(t *testing.T) {
	r := NewVectorRetriever(&fakeEmbedder{vector: []float32{0.1}}, &fakeStore{err: errors.New("index down")})

	if _, err := r.Retrieve(context.Background(), "query", 5, nil); err == nil {
		t.Error("expected error from store")
	}
}

func TestVectorRetriever_EmptyResultIsValid(t *testing.T) {
	r := NewVectorRetriever(&fakeEmbedder{vector: []float32{0.1}}, &fakeStore{})

	candidates, err := r.Retrieve(context.Background(), "query", 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected empty result, got %d", len(candidates))
	}
}
