package evaluation

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/llm"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

const promptTemplate = `You are an expert evaluator for a RAG system.
Your task is to analyze the relevance of the generated answer to the given question.
Based on the relevance of the generated answer, you will classify it
as "NON_RELEVANT", "PARTLY_RELEVANT", or "RELEVANT".

Here is the data for evaluation:

Question: %s
Generated Answer: %s

Please analyze the content and context of the generated answer in relation to the question
and provide your evaluation in parsable JSON without using code blocks:

{
  "Relevance": "NON_RELEVANT" | "PARTLY_RELEVANT" | "RELEVANT",
  "Explanation": "[Provide a brief explanation for your evaluation]"
}`

// Evaluator asks a model to grade its own answer.
type Evaluator struct {
	llmClient llm.Completer
	model     string
}

func NewEvaluator(llmClient llm.Completer, model string) *Evaluator {
	return &Evaluator{
		llmClient: llmClient,
		model:     model,
	}
}

func (e *Evaluator) Model() string {
	return e.model
}

// Evaluate grades answer against query. An unparsable grade is not an error:
// it yields an UNKNOWN verdict and the usage of the call is still returned.
// Only a failed model call returns an error.
func (e *Evaluator) Evaluate(ctx context.Context, query, answer string) (models.Verdict, models.TokenUsage, error) {
	resp, err := e.llmClient.Complete(ctx, llm.CompletionRequest{
		Model:  e.model,
		Prompt: BuildPrompt(query, answer),
	})
	if err != nil {
		return models.Verdict{}, models.TokenUsage{}, fmt.Errorf("failed to evaluate answer: %w", err)
	}

	verdict, ok := ParseVerdict(resp.Content)
	if !ok {
		logger.Warn("Could not parse relevance evaluation",
			zap.String("model", e.model),
			zap.String("content", resp.Content),
		)
	}

	logger.Debug("Answer evaluated",
		zap.String("relevance", verdict.Relevance.String()),
		zap.Int("eval_total_tokens", resp.Usage.TotalTokens),
	)

	return verdict, resp.Usage, nil
}

func BuildPrompt(query, answer string) string {
	return fmt.Sprintf(promptTemplate, query, answer)
}

// ParseVerdict strictly decodes a {"Relevance": ..., "Explanation": ...}
// object. Anything else yields the UNKNOWN verdict and false.
func ParseVerdict(raw string) (models.Verdict, bool) {
	unknown := models.Verdict{
		Relevance:   models.RelevanceUnknown,
		Explanation: models.UnparsedExplanation,
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return unknown, false
	}

	rawRelevance, ok := fields["Relevance"]
	if !ok {
		return unknown, false
	}

	var label string
	if err := json.Unmarshal(rawRelevance, &label); err != nil {
		return unknown, false
	}

	relevance, ok := models.ParseRelevance(label)
	if !ok {
		return unknown, false
	}

	var explanation string
	if rawExplanation, ok := fields["Explanation"]; ok {
		_ = json.Unmarshal(rawExplanation, &explanation)
	}

	return models.Verdict{Relevance: relevance, Explanation: explanation}, true
}
