// Package pipeline orchestrates the fixed-order retrieval stages:
// embed -> retrieve -> rerank (conditional) -> generate.
//
// A single State value threads through the stages. Each stage returns a new
// state rather than mutating the incoming one, so a stage that fails can
// always hand the last well-formed state to the next stage. Embedding and
// retrieval failures are fatal for the request; reranking and generation
// degrade silently. Empty retrieval short-circuits to a terminal "no
// content" response with rerank and generate never running. There are no
// retries in the core; retries belong to the calling layer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quizmentor/rag/internal/generator"
	"github.com/quizmentor/rag/internal/reranker"
	"github.com/quizmentor/rag/internal/retriever"
)

// NoContentText is the fixed terminal response for empty retrieval.
const NoContentText = "Sorry, I couldn't find relevant content to answer this question."

// State is the request-scoped record threaded through all stages. Stages
// treat it as immutable and return updated copies.
type State struct {
	Query           string
	Embedding       []float32
	Candidates      []retriever.Candidate
	EnableReranking bool
	Strategy        reranker.Strategy
	UseLLM          bool
	TopK            int
	Filter          map[string]string
	Response        *generator.Response

	// terminal marks the absorbing short-circuit state; later stages pass
	// the state through untouched.
	terminal bool
}

// Terminal reports whether the pipeline short-circuited.
func (s State) Terminal() bool {
	return s.terminal
}

// Embedder is the query-embedding dependency of the embed stage.
type Embedder interface {
	Embed(ctx context.Context, query string) ([]float32, error)
}

// VectorSearcher is the index-search dependency of the retrieve stage.
type VectorSearcher interface {
	RetrieveVector(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]retriever.Candidate, error)
}

// Generator is the response-building dependency of the generate stage.
type Generator interface {
	Generate(ctx context.Context, query string, candidates []retriever.Candidate, useLLM bool) generator.Response
}

// Pipeline wires the stages over their collaborators.
type Pipeline struct {
	embedder Embedder
	searcher VectorSearcher
	reranker reranker.Reranker
	gen      Generator
	logger   *slog.Logger
}

// Option is a functional option for configuring Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for stage warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a pipeline. reranker may be nil, in which case the rerank
// stage is a no-op even when requested.
func New(e Embedder, searcher VectorSearcher, r reranker.Reranker, gen Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder: e,
		searcher: searcher,
		reranker: r,
		gen:      gen,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type stage struct {
	name string
	fn   func(context.Context, State) (State, error)
}

// Run executes the fixed stage sequence and returns the final state.
func (p *Pipeline) Run(ctx context.Context, s State) (State, error) {
	stages := []stage{
		{"embed_query", p.embedStage},
		{"retrieve", p.retrieveStage},
		{"rerank", p.rerankStage},
		{"generate_response", p.generateStage},
	}

	cur := s
	for _, st := range stages {
		next, err := st.fn(ctx, cur)
		if err != nil {
			return cur, fmt.Errorf("stage %s: %w", st.name, err)
		}
		cur = next
	}

	return cur, nil
}

// embedStage computes the query embedding. Failure is fatal: retrieval
// cannot proceed without a vector.
func (p *Pipeline) embedStage(ctx context.Context, s State) (State, error) {
	embedding, err := p.embedder.Embed(ctx, s.Query)
	if err != nil {
		return s, err
	}

	next := s
	next.Embedding = embedding
	return next, nil
}

// retrieveStage searches the index. Failure is fatal; an empty result
// transitions to the terminal no-content response.
func (p *Pipeline) retrieveStage(ctx context.Context, s State) (State, error) {
	candidates, err := p.searcher.RetrieveVector(ctx, s.Embedding, s.TopK, s.Filter)
	if err != nil {
		return s, err
	}

	next := s
	if len(candidates) == 0 {
		next.Candidates = nil
		next.Response = &generator.Response{Text: NoContentText}
		next.terminal = true
		return next, nil
	}

	next.Candidates = candidates
	return next, nil
}

// rerankStage re-orders candidates when reranking is enabled. Any failure,
// including a panic in the reranker, keeps the incoming state and logs a
// warning: reranking is best-effort.
func (p *Pipeline) rerankStage(ctx context.Context, s State) (out State, err error) {
	if s.terminal || !s.EnableReranking || p.reranker == nil || len(s.Candidates) == 0 {
		return s, nil
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("rerank stage panicked, keeping retrieval order", "panic", r)
			out, err = s, nil
		}
	}()

	out = s
	out.Candidates = p.reranker.Rerank(ctx, s.Query, s.Candidates, s.Strategy, s.TopK)
	return out, nil
}

// generateStage builds the response payload. Generation degrades
// internally; a panic keeps the incoming state.
func (p *Pipeline) generateStage(ctx context.Context, s State) (out State, err error) {
	if s.terminal {
		return s, nil
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("generate stage panicked, returning context only", "panic", r)
			fallback := s
			fallback.Response = &generator.Response{Questions: s.Candidates}
			out, err = fallback, nil
		}
	}()

	resp := p.gen.Generate(ctx, s.Query, s.Candidates, s.UseLLM)
	out = s
	out.Response = &resp
	return out, nil
}
