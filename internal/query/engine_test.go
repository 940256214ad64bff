package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/title-rag/backend/internal/query/mocks"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/config"
)

type engineFixture struct {
	retriever *mocks.MockRetriever
	generator *mocks.MockAnswerGenerator
	evaluator *mocks.MockRelevanceEvaluator
	recorder  *mocks.MockQueryRecorder
	engine    *Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &engineFixture{
		retriever: mocks.NewMockRetriever(ctrl),
		generator: mocks.NewMockAnswerGenerator(ctrl),
		evaluator: mocks.NewMockRelevanceEvaluator(ctrl),
		recorder:  mocks.NewMockQueryRecorder(ctrl),
	}

	pricing := NewPriceTable([]config.ModelPrice{
		{Model: "gpt-4o-mini", PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
		{Model: "gpt-4o", PromptPer1K: 0.0025, CompletionPer1K: 0.01},
	})
	f.engine = NewEngine(f.retriever, f.generator, f.evaluator, f.recorder, pricing)
	f.engine.newID = func() string { return "q-1" }

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	f.engine.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	f.generator.EXPECT().DefaultModel().Return("gpt-4o-mini").AnyTimes()
	f.evaluator.EXPECT().Model().Return("gpt-4o-mini").AnyTimes()
	return f
}

var pastaRecords = []models.Record{
	{ID: "7", Title: "Pasta Night", Description: "three pasta recipes", Tags: "pasta,cooking"},
}

func TestEngine_Answer(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.retriever.EXPECT().Search(ctx, "best pasta recipes").Return(pastaRecords, nil)
	f.generator.EXPECT().
		Generate(ctx, BuildPrompt("best pasta recipes", pastaRecords), "gpt-4o-mini").
		Return("3 Pasta Recipes You Need Tonight", models.NewTokenUsage(1000, 20), nil)
	f.evaluator.EXPECT().
		Evaluate(ctx, "best pasta recipes", "3 Pasta Recipes You Need Tonight").
		Return(models.Verdict{Relevance: models.RelevanceRelevant, Explanation: "on topic"}, models.NewTokenUsage(200, 30), nil)

	var saved *models.QueryRecord
	f.recorder.EXPECT().InsertQueryRecord(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.QueryRecord) error {
			saved = r
			return nil
		})

	record, err := f.engine.Answer(ctx, "best pasta recipes")
	require.NoError(t, err)
	require.Same(t, record, saved)

	assert.Equal(t, "q-1", record.ID)
	assert.Equal(t, "best pasta recipes", record.Query)
	assert.Equal(t, "3 Pasta Recipes You Need Tonight", record.Answer)
	assert.Equal(t, "gpt-4o-mini", record.Model)
	assert.Equal(t, models.RelevanceRelevant, record.Relevance)
	assert.Equal(t, "on topic", record.RelevanceExplanation)

	// start and stop are two ticks apart: retrieval..evaluation
	assert.InDelta(t, 0.25, record.ResponseTime, 1e-9)
	assert.GreaterOrEqual(t, record.ResponseTime, 0.0)

	assert.Equal(t, record.PromptTokens+record.CompletionTokens, record.TotalTokens)
	assert.Equal(t, record.EvalPromptTokens+record.EvalCompletionTokens, record.EvalTotalTokens)
	assert.Equal(t, 1020, record.TotalTokens)
	assert.Equal(t, 230, record.EvalTotalTokens)

	wantCost := (1000*0.00015+20*0.0006)/1000 + (200*0.00015+30*0.0006)/1000
	assert.InDelta(t, wantCost, record.Cost, 1e-12)

	assert.Equal(t, time.UTC, record.CreatedAt.Location())
}

func TestEngine_Run_ModelOverride(t *testing.T) {
	f := newEngineFixture(t)

	f.retriever.EXPECT().Search(gomock.Any(), "q").Return(nil, nil)
	f.generator.EXPECT().Generate(gomock.Any(), gomock.Any(), "gpt-4o").
		Return("A", models.NewTokenUsage(100, 10), nil)
	// the evaluation model does not follow the override
	f.evaluator.EXPECT().Evaluate(gomock.Any(), "q", "A").
		Return(models.Verdict{Relevance: models.RelevanceNonRelevant}, models.NewTokenUsage(100, 10), nil)
	f.recorder.EXPECT().InsertQueryRecord(gomock.Any(), gomock.Any()).Return(nil)

	record, err := f.engine.Run(context.Background(), Request{Query: "q", Model: "gpt-4o"})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", record.Model)
	wantCost := (100*0.0025+10*0.01)/1000 + (100*0.00015+10*0.0006)/1000
	assert.InDelta(t, wantCost, record.Cost, 1e-12)
}

func TestEngine_Answer_NoRecordsStillAnswers(t *testing.T) {
	f := newEngineFixture(t)

	f.retriever.EXPECT().Search(gomock.Any(), "obscure").Return([]models.Record{}, nil)
	f.generator.EXPECT().
		Generate(gomock.Any(), BuildPrompt("obscure", nil), "gpt-4o-mini").
		Return("Something", models.NewTokenUsage(80, 2), nil)
	f.evaluator.EXPECT().Evaluate(gomock.Any(), "obscure", "Something").
		Return(models.Verdict{Relevance: models.RelevancePartlyRelevant}, models.NewTokenUsage(90, 5), nil)
	f.recorder.EXPECT().InsertQueryRecord(gomock.Any(), gomock.Any()).Return(nil)

	record, err := f.engine.Answer(context.Background(), "obscure")
	require.NoError(t, err)
	assert.Equal(t, "Something", record.Answer)
}

func TestEngine_Answer_UnknownVerdictKeepsEvaluationUsage(t *testing.T) {
	f := newEngineFixture(t)

	f.retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(pastaRecords, nil)
	f.generator.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Pasta!", models.NewTokenUsage(500, 5), nil)
	f.evaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.Verdict{Relevance: models.RelevanceUnknown, Explanation: models.UnparsedExplanation},
			models.NewTokenUsage(150, 12), nil)
	f.recorder.EXPECT().InsertQueryRecord(gomock.Any(), gomock.Any()).Return(nil)

	record, err := f.engine.Answer(context.Background(), "pasta")
	require.NoError(t, err)

	assert.Equal(t, models.RelevanceUnknown, record.Relevance)
	assert.Equal(t, models.UnparsedExplanation, record.RelevanceExplanation)
	assert.Equal(t, 150, record.EvalPromptTokens)
	assert.Equal(t, 12, record.EvalCompletionTokens)
	assert.Equal(t, 162, record.EvalTotalTokens)
	assert.Positive(t, record.Cost)
}

func TestEngine_Answer_PersistenceOutage(t *testing.T) {
	f := newEngineFixture(t)

	f.retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(pastaRecords, nil)
	f.generator.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Pasta in 10 Minutes", models.NewTokenUsage(500, 5), nil)
	f.evaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.Verdict{Relevance: models.RelevanceRelevant}, models.NewTokenUsage(100, 10), nil)
	f.recorder.EXPECT().InsertQueryRecord(gomock.Any(), gomock.Any()).
		Return(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"))

	record, err := f.engine.Answer(context.Background(), "pasta")
	require.NoError(t, err)
	assert.Equal(t, "Pasta in 10 Minutes", record.Answer)
}

func TestEngine_Answer_PersistsAfterCallerCancels(t *testing.T) {
	f := newEngineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.generator.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string) (string, models.TokenUsage, error) {
			cancel()
			return "A", models.NewTokenUsage(1, 1), nil
		})
	f.evaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.Verdict{Relevance: models.RelevanceRelevant}, models.NewTokenUsage(1, 1), nil)
	f.recorder.EXPECT().InsertQueryRecord(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *models.QueryRecord) error {
			return ctx.Err()
		})

	_, err := f.engine.Answer(ctx, "q")
	require.NoError(t, err)
}

func TestEngine_Answer_RetrievalFailure(t *testing.T) {
	f := newEngineFixture(t)

	boom := errors.New("connection refused")
	f.retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, boom)

	record, err := f.engine.Answer(context.Background(), "pasta")
	assert.Nil(t, record)

	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_Answer_GenerationFailure(t *testing.T) {
	f := newEngineFixture(t)

	boom := errors.New("429 rate limit")
	f.retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(pastaRecords, nil)
	f.generator.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", models.TokenUsage{}, &GenerationError{Stage: "answer", Err: boom})

	_, err := f.engine.Answer(context.Background(), "pasta")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "answer", genErr.Stage)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_Answer_EvaluationCallFailure(t *testing.T) {
	f := newEngineFixture(t)

	boom := errors.New("context deadline exceeded")
	f.retriever.EXPECT().Search(gomock.Any(), gomock.Any()).Return(pastaRecords, nil)
	f.generator.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Pasta", models.NewTokenUsage(10, 1), nil)
	f.evaluator.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.Verdict{}, models.TokenUsage{}, boom)

	_, err := f.engine.Answer(context.Background(), "pasta")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "evaluation", genErr.Stage)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_Answer_EmptyQuery(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
