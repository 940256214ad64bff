package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/title-rag/backend/internal/llm"
	"github.com/title-rag/backend/internal/llm/mocks"
	"github.com/title-rag/backend/internal/storage/models"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.Verdict
		ok   bool
	}{
		{
			name: "relevant",
			raw:  `{"Relevance": "RELEVANT", "Explanation": "Titles match the query"}`,
			want: models.Verdict{Relevance: models.RelevanceRelevant, Explanation: "Titles match the query"},
			ok:   true,
		},
		{
			name: "partly relevant without explanation",
			raw:  `{"Relevance": "PARTLY_RELEVANT"}`,
			want: models.Verdict{Relevance: models.RelevancePartlyRelevant},
			ok:   true,
		},
		{
			name: "non relevant with surrounding whitespace",
			raw:  "\n  {\"Relevance\": \"NON_RELEVANT\", \"Explanation\": \"off topic\"}\n",
			want: models.Verdict{Relevance: models.RelevanceNonRelevant, Explanation: "off topic"},
			ok:   true,
		},
		{name: "not json", raw: "not json"},
		{name: "empty", raw: ""},
		{name: "missing relevance", raw: `{"Explanation":"ok"}`},
		{name: "unknown label", raw: `{"Relevance":"MOSTLY_RELEVANT","Explanation":"hm"}`},
		{name: "lowercase label", raw: `{"Relevance":"relevant"}`},
		{name: "non-string relevance", raw: `{"Relevance":1}`},
		{name: "array", raw: `["RELEVANT"]`},
		{name: "null", raw: `null`},
		{name: "code fenced", raw: "```json\n{\"Relevance\":\"RELEVANT\"}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseVerdict(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, models.RelevanceUnknown, got.Relevance)
				assert.Equal(t, models.UnparsedExplanation, got.Explanation)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	completer.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			assert.Equal(t, "gpt-4o-mini", req.Model)
			assert.Contains(t, req.Prompt, "Question: pasta recipes")
			assert.Contains(t, req.Prompt, "Generated Answer: 10 Pasta Recipes")
			return &llm.CompletionResponse{
				Content: `{"Relevance":"RELEVANT","Explanation":"fits"}`,
				Usage:   models.NewTokenUsage(150, 20),
			}, nil
		})

	evaluator := NewEvaluator(completer, "gpt-4o-mini")
	verdict, usage, err := evaluator.Evaluate(context.Background(), "pasta recipes", "10 Pasta Recipes")
	require.NoError(t, err)

	assert.Equal(t, models.RelevanceRelevant, verdict.Relevance)
	assert.Equal(t, "fits", verdict.Explanation)
	assert.Equal(t, 170, usage.TotalTokens)
}

func TestEvaluator_Evaluate_UnparsableStillReportsUsage(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	completer.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		Return(&llm.CompletionResponse{
			Content: "The answer looks fine to me.",
			Usage:   models.NewTokenUsage(140, 9),
		}, nil)

	evaluator := NewEvaluator(completer, "gpt-4o-mini")
	verdict, usage, err := evaluator.Evaluate(context.Background(), "q", "a")
	require.NoError(t, err)

	assert.Equal(t, models.RelevanceUnknown, verdict.Relevance)
	assert.Equal(t, models.UnparsedExplanation, verdict.Explanation)
	assert.Equal(t, models.TokenUsage{PromptTokens: 140, CompletionTokens: 9, TotalTokens: 149}, usage)
}

func TestEvaluator_Evaluate_CallError(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)

	boom := errors.New("connection reset")
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(nil, boom)

	evaluator := NewEvaluator(completer, "gpt-4o-mini")
	_, _, err := evaluator.Evaluate(context.Background(), "q", "a")
	assert.ErrorIs(t, err, boom)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("cheap meals", "Budget Dinners")
	assert.Contains(t, prompt, "Question: cheap meals\nGenerated Answer: Budget Dinners\n")
	assert.Contains(t, prompt, `"NON_RELEVANT" | "PARTLY_RELEVANT" | "RELEVANT"`)
}
