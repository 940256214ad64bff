package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/metrics"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

//go:generate mockgen -destination=mocks/pipeline.go -package=mocks . Retriever,AnswerGenerator,RelevanceEvaluator,QueryRecorder

type Retriever interface {
	Search(ctx context.Context, query string) ([]models.Record, error)
}

type AnswerGenerator interface {
	Generate(ctx context.Context, prompt, model string) (string, models.TokenUsage, error)
	DefaultModel() string
}

type RelevanceEvaluator interface {
	Evaluate(ctx context.Context, query, answer string) (models.Verdict, models.TokenUsage, error)
	Model() string
}

type QueryRecorder interface {
	InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error
}

type Engine struct {
	retriever Retriever
	generator AnswerGenerator
	evaluator RelevanceEvaluator
	recorder  QueryRecorder
	pricing   *PriceTable

	newID func() string
	now   func() time.Time
}

type Request struct {
	Query string
	// Model overrides the generation model when set.
	Model string
}

func NewEngine(retriever Retriever, generator AnswerGenerator, evaluator RelevanceEvaluator, recorder QueryRecorder, pricing *PriceTable) *Engine {
	if pricing == nil {
		pricing = NewPriceTable(nil)
	}
	return &Engine{
		retriever: retriever,
		generator: generator,
		evaluator: evaluator,
		recorder:  recorder,
		pricing:   pricing,
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
}

// Answer runs the pipeline for query with the default generation model.
func (e *Engine) Answer(ctx context.Context, query string) (*models.QueryRecord, error) {
	return e.Run(ctx, Request{Query: query})
}

// Run retrieves context, generates an answer, grades it and records the
// interaction. Retrieval and model failures abort the run; a failure to
// record does not.
func (e *Engine) Run(ctx context.Context, req Request) (*models.QueryRecord, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	queryID := e.newID()
	model := req.Model
	if model == "" {
		model = e.generator.DefaultModel()
	}

	logger.Info("Processing query",
		zap.String("query_id", queryID),
		zap.String("query", req.Query),
		zap.String("model", model),
	)

	startTime := e.now()

	records, err := e.retriever.Search(ctx, req.Query)
	if err != nil {
		e.observeFailure(startTime, "retrieval_error")
		return nil, &RetrievalError{Err: err}
	}
	metrics.RetrievedRecords.Observe(float64(len(records)))

	prompt := BuildPrompt(req.Query, records)

	answer, genUsage, err := e.generator.Generate(ctx, prompt, model)
	if err != nil {
		e.observeFailure(startTime, "generation_error")
		return nil, asGenerationError("answer", err)
	}

	verdict, evalUsage, err := e.evaluator.Evaluate(ctx, req.Query, answer)
	if err != nil {
		e.observeFailure(startTime, "evaluation_error")
		return nil, asGenerationError("evaluation", err)
	}

	elapsed := max(e.now().Sub(startTime).Seconds(), 0)

	evalModel := e.evaluator.Model()
	genCost := e.pricing.Cost(model, genUsage)
	evalCost := e.pricing.Cost(evalModel, evalUsage)

	record := &models.QueryRecord{
		ID:                   queryID,
		Query:                req.Query,
		Answer:               answer,
		Model:                model,
		ResponseTime:         elapsed,
		Relevance:            verdict.Relevance,
		RelevanceExplanation: verdict.Explanation,
		PromptTokens:         genUsage.PromptTokens,
		CompletionTokens:     genUsage.CompletionTokens,
		TotalTokens:          genUsage.TotalTokens,
		EvalPromptTokens:     evalUsage.PromptTokens,
		EvalCompletionTokens: evalUsage.CompletionTokens,
		EvalTotalTokens:      evalUsage.TotalTokens,
		Cost:                 genCost + evalCost,
		CreatedAt:            e.now().UTC(),
	}

	e.observeSuccess(record, evalModel, genCost, evalCost)

	// The caller may be gone by now; the record is still worth keeping.
	if err := e.recorder.InsertQueryRecord(context.WithoutCancel(ctx), record); err != nil {
		metrics.PersistenceFailures.WithLabelValues("insert").Inc()
		logger.Error("Failed to save query record",
			zap.String("query_id", queryID),
			zap.Error(err),
		)
	}

	logger.Info("Query processed successfully",
		zap.String("query_id", queryID),
		zap.Int("records", len(records)),
		zap.String("relevance", record.Relevance.String()),
		zap.Float64("response_time", record.ResponseTime),
		zap.Float64("cost", record.Cost),
	)

	return record, nil
}

func (e *Engine) observeFailure(startTime time.Time, status string) {
	metrics.QueryTotal.WithLabelValues(status).Inc()
	metrics.QueryDuration.WithLabelValues(status).Observe(max(e.now().Sub(startTime).Seconds(), 0))
}

func (e *Engine) observeSuccess(record *models.QueryRecord, evalModel string, genCost, evalCost float64) {
	metrics.QueryTotal.WithLabelValues("success").Inc()
	metrics.QueryDuration.WithLabelValues("success").Observe(record.ResponseTime)

	metrics.LLMTokensUsed.WithLabelValues(record.Model, "answer", "prompt").Add(float64(record.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(record.Model, "answer", "completion").Add(float64(record.CompletionTokens))
	metrics.LLMTokensUsed.WithLabelValues(evalModel, "evaluation", "prompt").Add(float64(record.EvalPromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(evalModel, "evaluation", "completion").Add(float64(record.EvalCompletionTokens))

	metrics.LLMCost.WithLabelValues(record.Model).Add(genCost)
	metrics.LLMCost.WithLabelValues(evalModel).Add(evalCost)

	metrics.RelevanceVerdicts.WithLabelValues(record.Relevance.String()).Inc()
}

func asGenerationError(stage string, err error) error {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &GenerationError{Stage: stage, Err: err}
}
