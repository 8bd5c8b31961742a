// Package evaluator scores the quality of a (query, context, response)
// tuple with four RAG metrics: context precision, faithfulness, answer
// correctness, and context relevancy.
//
// Two mutually exclusive backends exist: an external evaluation library
// when one is supplied, and a deterministic heuristic fallback otherwise.
// The backend is fixed at construction; there is no per-call switching.
// Evaluation failure never propagates: any error or panic yields an
// all-zero result with error metadata, since evaluation is a requested
// side-analysis, not part of answering.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizmentor/rag/internal/retriever"
)

// Evaluation method names recorded in result metadata.
const (
	MethodLibrary       = "library"
	MethodFallback      = "fallback"
	MethodErrorFallback = "error_fallback"
)

// metricWeight is the equal weight applied to each of the four metrics.
const metricWeight = 0.25

// Metric names passed to the library backend.
var libraryMetrics = []string{
	"context_precision",
	"faithfulness",
	"answer_correctness",
	"context_relevancy",
}

// Sample is one evaluation input. GroundTruth is optional; empty means not
// provided.
type Sample struct {
	Query       string
	Context     []retriever.Candidate
	Response    string
	GroundTruth string
}

// Metadata describes how a result was produced.
type Metadata struct {
	Method              string `json:"evaluation_method"`
	GroundTruthProvided bool   `json:"ground_truth_provided"`
	Error               string `json:"error,omitempty"`
}

// Result holds the four metric scores, each in [0, 1], their unweighted
// mean, and derived insights. Immutable once computed.
type Result struct {
	ContextPrecision  float64           `json:"context_precision"`
	Faithfulness      float64           `json:"faithfulness"`
	AnswerCorrectness float64           `json:"answer_correctness"`
	ContextRelevancy  float64           `json:"context_relevancy"`
	OverallScore      float64           `json:"overall_score"`
	EvaluationTime    float64           `json:"evaluation_time"`
	Metadata          Metadata          `json:"metadata"`
	Insights          map[string]string `json:"quality_insights,omitempty"`
	Recommendations   []string          `json:"recommendations,omitempty"`
}

// Library is the optional external RAG-evaluation backend. Implementations
// return a score per requested metric name.
type Library interface {
	Evaluate(ctx context.Context, sample Sample, metrics []string) (map[string]float64, error)
}

// Service evaluates RAG quality with a backend selected at construction.
type Service struct {
	library Library
	logger  *slog.Logger
}

// ServiceOption is a functional option for configuring Service.
type ServiceOption func(*Service)

// WithLibrary installs an external evaluation library backend. Without it
// the heuristic fallback backend is used.
func WithLibrary(lib Library) ServiceOption {
	return func(s *Service) {
		s.library = lib
	}
}

// WithLogger sets the logger used for evaluation errors.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new evaluation service.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Evaluate scores the sample. It never returns an error and never panics;
// every failure produces an all-zero result with error metadata.
func (s *Service) Evaluate(ctx context.Context, sample Sample) (result Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("evaluation panicked", "panic", r)
			result = s.errorResult(sample, fmt.Sprintf("%v", r))
			result.EvaluationTime = time.Since(start).Seconds()
		}
	}()

	if s.library != nil {
		result = s.evaluateWithLibrary(ctx, sample)
	} else {
		result = s.evaluateHeuristic(sample)
	}

	if result.Metadata.Method != MethodErrorFallback {
		result.Insights = qualityInsights(result)
		result.Recommendations = recommendations(result)
	}
	result.EvaluationTime = time.Since(start).Seconds()
	return result
}

// evaluateWithLibrary delegates to the external library's four standard
// metrics. A library error degrades to the error result, not to the
// heuristic backend; backends never switch per call.
func (s *Service) evaluateWithLibrary(ctx context.Context, sample Sample) Result {
	scores, err := s.library.Evaluate(ctx, sample, libraryMetrics)
	if err != nil {
		s.logger.Error("library evaluation failed", "error", err)
		return s.errorResult(sample, err.Error())
	}

	cp := scores["context_precision"]
	f := scores["faithfulness"]
	ac := scores["answer_correctness"]
	cr := scores["context_relevancy"]

	return Result{
		ContextPrecision:  cp,
		Faithfulness:      f,
		AnswerCorrectness: ac,
		ContextRelevancy:  cr,
		OverallScore:      cp*metricWeight + f*metricWeight + ac*metricWeight + cr*metricWeight,
		Metadata: Metadata{
			Method:              MethodLibrary,
			GroundTruthProvided: sample.GroundTruth != "",
		},
	}
}

// evaluateHeuristic runs the deterministic fallback formulas.
func (s *Service) evaluateHeuristic(sample Sample) Result {
	contexts := contextTexts(sample.Context)

	cp := contextPrecision(sample.Query, contexts)
	f := faithfulness(contexts, sample.Response)
	ac := answerCorrectness(sample.Response, sample.GroundTruth)
	cr := contextRelevancy(sample.Query, contexts)

	return Result{
		ContextPrecision:  cp,
		Faithfulness:      f,
		AnswerCorrectness: ac,
		ContextRelevancy:  cr,
		OverallScore:      (cp + f + ac + cr) / 4,
		Metadata: Metadata{
			Method:              MethodFallback,
			GroundTruthProvided: sample.GroundTruth != "",
		},
	}
}

// errorResult builds the all-zero result recorded when evaluation fails.
func (s *Service) errorResult(sample Sample, errMsg string) Result {
	return Result{
		Metadata: Metadata{
			Method:              MethodErrorFallback,
			GroundTruthProvided: sample.GroundTruth != "",
			Error:               errMsg,
		},
		Insights:        map[string]string{"error": fmt.Sprintf("Evaluation failed: %s", errMsg)},
		Recommendations: []string{"Fix evaluation service", "Check evaluation backend configuration"},
	}
}

// contextTexts extracts the text of each context item: the question text
// when present, then notes, then the stored answer.
func contextTexts(candidates []retriever.Candidate) []string {
	texts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		switch {
		case c.Title != "":
			texts = append(texts, c.Title)
		case c.Snippet != "":
			texts = append(texts, c.Snippet)
		case c.Meta["answer"] != "":
			texts = append(texts, c.Meta["answer"])
		default:
			texts = append(texts, "")
		}
	}
	return texts
}
