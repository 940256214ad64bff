package query

import (
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/config"
	"github.com/title-rag/backend/pkg/logger"
)

type price struct {
	promptPer1K     float64
	completionPer1K float64
}

// PriceTable holds USD prices per 1000 tokens keyed by model name.
type PriceTable struct {
	prices map[string]price
}

func NewPriceTable(entries []config.ModelPrice) *PriceTable {
	prices := make(map[string]price, len(entries))
	for _, e := range entries {
		prices[e.Model] = price{
			promptPer1K:     e.PromptPer1K,
			completionPer1K: e.CompletionPer1K,
		}
	}
	return &PriceTable{prices: prices}
}

// Cost prices usage for model. Unknown models cost nothing.
func (t *PriceTable) Cost(model string, usage models.TokenUsage) float64 {
	p, ok := t.prices[model]
	if !ok {
		logger.Warn("No price configured for model", zap.String("model", model))
		return 0
	}
	return float64(usage.PromptTokens)*p.promptPer1K/1000 +
		float64(usage.CompletionTokens)*p.completionPer1K/1000
}
