package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/llm"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

type Generator struct {
	llmClient    llm.Completer
	defaultModel string
}

func NewGenerator(llmClient llm.Completer, defaultModel string) *Generator {
	return &Generator{
		llmClient:    llmClient,
		defaultModel: defaultModel,
	}
}

// Generate returns the model's answer to prompt. An empty model selects the
// default one. Failed calls are not retried.
func (g *Generator) Generate(ctx context.Context, prompt, model string) (string, models.TokenUsage, error) {
	if model == "" {
		model = g.defaultModel
	}

	resp, err := g.llmClient.Complete(ctx, llm.CompletionRequest{
		Model:  model,
		Prompt: prompt,
	})
	if err != nil {
		return "", models.TokenUsage{}, &GenerationError{Stage: "answer", Err: err}
	}

	if resp.Content == "" {
		logger.Warn("Model returned an empty answer", zap.String("model", model))
	}

	return resp.Content, resp.Usage, nil
}

func (g *Generator) DefaultModel() string {
	return g.defaultModel
}
