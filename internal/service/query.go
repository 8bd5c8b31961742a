// Package service ties the retrieval pipeline, quality evaluation, and
// optional persistence together behind the externally-facing query API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quizmentor/rag/internal/evaluator"
	"github.com/quizmentor/rag/internal/generator"
	"github.com/quizmentor/rag/internal/pipeline"
	"github.com/quizmentor/rag/internal/repository"
	"github.com/quizmentor/rag/internal/reranker"
)

// ErrEmptyQuery is returned when the request carries no query text.
var ErrEmptyQuery = errors.New("query is required")

// ErrPersistenceDisabled is returned when evaluation history is requested
// but no database is configured.
var ErrPersistenceDisabled = errors.New("evaluation persistence is not configured")

// QueryRequest is the externally-facing request payload.
type QueryRequest struct {
	Query             string            `json:"query"`
	UseLLM            bool              `json:"use_llm"`
	EnableReranking   bool              `json:"enable_reranking"`
	RerankingStrategy string            `json:"reranking_strategy,omitempty"`
	EnableEvaluation  bool              `json:"enable_evaluation"`
	GroundTruth       string            `json:"ground_truth,omitempty"`
	TopK              int               `json:"top_k,omitempty"`
	Filters           map[string]string `json:"filters,omitempty"`
}

// QueryResponse is the externally-facing response payload. Evaluation is
// present only when requested and applicable.
type QueryResponse struct {
	Response   generator.Response `json:"response"`
	Evaluation *evaluator.Result  `json:"evaluation,omitempty"`
}

// QueryService drives the pipeline and its side-analyses for one request.
type QueryService struct {
	pipeline        *pipeline.Pipeline
	evaluator       *evaluator.Service
	evalRepo        repository.EvaluationRepository
	defaultTopK     int
	defaultStrategy string
	logger          *slog.Logger
}

// QueryServiceOption is a functional option for configuring QueryService.
type QueryServiceOption func(*QueryService)

// WithEvaluationRepository enables best-effort persistence of evaluation
// results.
func WithEvaluationRepository(repo repository.EvaluationRepository) QueryServiceOption {
	return func(s *QueryService) {
		s.evalRepo = repo
	}
}

// WithDefaultTopK sets the candidate count used when the request does not
// specify one.
func WithDefaultTopK(topK int) QueryServiceOption {
	return func(s *QueryService) {
		s.defaultTopK = topK
	}
}

// WithDefaultStrategy sets the reranking strategy used when a request does
// not name one.
func WithDefaultStrategy(name string) QueryServiceOption {
	return func(s *QueryService) {
		s.defaultStrategy = name
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) QueryServiceOption {
	return func(s *QueryService) {
		s.logger = logger
	}
}

// NewQueryService creates a new query service.
func NewQueryService(p *pipeline.Pipeline, eval *evaluator.Service, opts ...QueryServiceOption) *QueryService {
	s := &QueryService{
		pipeline:    p,
		evaluator:   eval,
		defaultTopK: 5,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Query runs the pipeline for one request. Evaluation is a requested
// side-analysis: its failure (and persistence failure) never fails the
// request. A request that can still return retrieved content does so even
// if every enhancement fails.
func (s *QueryService) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	strategyName := req.RerankingStrategy
	if strategyName == "" {
		strategyName = s.defaultStrategy
	}
	strategy, ok := reranker.ParseStrategy(strategyName)
	if !ok {
		s.logger.Warn("unknown reranking strategy, using semantic relevance", "strategy", strategyName)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}

	state := pipeline.State{
		Query:           req.Query,
		EnableReranking: req.EnableReranking,
		Strategy:        strategy,
		UseLLM:          req.UseLLM,
		TopK:            topK,
		Filter:          req.Filters,
	}

	final, err := s.pipeline.Run(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("pipeline failed: %w", err)
	}

	if req.EnableReranking && !final.Terminal() {
		m := reranker.Metrics(final.Candidates)
		s.logger.Info("reranking finished",
			"strategy", strategy.String(),
			"total_results", m.TotalResults,
			"results_improved", m.ResultsImproved,
			"improvement_rate", m.ImprovementRate,
		)
	}

	resp := generator.Response{}
	if final.Response != nil {
		resp = *final.Response
	}

	out := &QueryResponse{Response: resp}

	if req.EnableEvaluation && !final.Terminal() {
		result := s.evaluator.Evaluate(ctx, evaluator.Sample{
			Query:       req.Query,
			Context:     final.Candidates,
			Response:    responseTextForEvaluation(resp),
			GroundTruth: req.GroundTruth,
		})
		out.Evaluation = &result
		s.persistEvaluation(ctx, req, strategy, resp, result)
	}

	return out, nil
}

// ListEvaluations returns recent persisted evaluation records.
func (s *QueryService) ListEvaluations(ctx context.Context, limit int) ([]repository.EvaluationRecord, error) {
	if s.evalRepo == nil {
		return nil, ErrPersistenceDisabled
	}
	if limit <= 0 {
		limit = 20
	}
	return s.evalRepo.ListRecent(ctx, limit)
}

// persistEvaluation saves the result best-effort; failures are logged and
// swallowed.
func (s *QueryService) persistEvaluation(ctx context.Context, req QueryRequest, strategy reranker.Strategy, resp generator.Response, result evaluator.Result) {
	if s.evalRepo == nil {
		return
	}

	record := &repository.EvaluationRecord{
		ID:                  uuid.New(),
		Query:               req.Query,
		Response:            responseTextForEvaluation(resp),
		Strategy:            strategy.String(),
		ContextPrecision:    result.ContextPrecision,
		Faithfulness:        result.Faithfulness,
		AnswerCorrectness:   result.AnswerCorrectness,
		ContextRelevancy:    result.ContextRelevancy,
		OverallScore:        result.OverallScore,
		EvaluationMethod:    result.Metadata.Method,
		GroundTruthProvided: result.Metadata.GroundTruthProvided,
		EvaluationTime:      result.EvaluationTime,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.evalRepo.Save(ctx, record); err != nil {
		s.logger.Warn("failed to persist evaluation result", "error", err)
	}
}

// responseTextForEvaluation picks the text the evaluator scores: the LLM
// explanation when present, otherwise the retrieved question texts.
func responseTextForEvaluation(resp generator.Response) string {
	if resp.Explanation != "" {
		return resp.Explanation
	}

	titles := make([]string, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		titles = append(titles, q.Title)
	}
	return strings.Join(titles, " ")
}
