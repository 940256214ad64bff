package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/metrics"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

const defaultBatchSize = 500

type Indexer interface {
	RecreateIndex(ctx context.Context) error
	IndexRecords(ctx context.Context, records []models.Record) (int, error)
	IndexName() string
}

// Processor rebuilds the search index from a CSV export.
type Processor struct {
	index     Indexer
	batchSize int
}

func NewProcessor(index Indexer) *Processor {
	return &Processor{
		index:     index,
		batchSize: defaultBatchSize,
	}
}

// Ingest replaces the index contents with the records in dataPath and
// returns how many were indexed.
func (p *Processor) Ingest(ctx context.Context, dataPath string) (int, error) {
	records, err := LoadCSV(dataPath)
	if err != nil {
		return 0, err
	}

	logger.Info("Loaded records",
		zap.String("path", dataPath),
		zap.Int("records", len(records)),
	)

	return p.IngestRecords(ctx, records)
}

func (p *Processor) IngestRecords(ctx context.Context, records []models.Record) (int, error) {
	if err := p.index.RecreateIndex(ctx); err != nil {
		return 0, fmt.Errorf("failed to recreate index: %w", err)
	}

	total := 0
	for start := 0; start < len(records); start += p.batchSize {
		end := min(start+p.batchSize, len(records))

		n, err := p.index.IndexRecords(ctx, records[start:end])
		if err != nil {
			return total, fmt.Errorf("failed to index records %d-%d: %w", start, end, err)
		}
		total += n
		metrics.DocumentsIndexed.Add(float64(n))
	}

	logger.Info("Index rebuilt",
		zap.String("index", p.index.IndexName()),
		zap.Int("indexed", total),
		zap.Int("total", len(records)),
	)

	return total, nil
}
