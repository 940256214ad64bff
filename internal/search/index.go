package search

import (
	"context"
	"fmt"
	"time"

	"github.com/title-rag/backend/internal/search/elastic"
	"github.com/title-rag/backend/internal/search/typesense"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/config"
	"github.com/title-rag/backend/pkg/retry"
)

const (
	BackendElasticsearch = "elasticsearch"
	BackendTypesense     = "typesense"
)

// Index is a long-lived handle on the video index. Search serves queries;
// the remaining methods are used at startup and by the ingest command.
type Index interface {
	Search(ctx context.Context, query string) ([]models.Record, error)
	Ping(ctx context.Context, cfg retry.Config) error
	RecreateIndex(ctx context.Context) error
	IndexRecords(ctx context.Context, records []models.Record) (int, error)
	IndexName() string
}

func NewIndex(cfg config.SearchConfig) (Index, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	switch cfg.Backend {
	case BackendElasticsearch, "":
		return elastic.NewClient(elastic.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
			IndexName: cfg.IndexName,
			Timeout:   timeout,
		})
	case BackendTypesense:
		return typesense.NewClient(typesense.Config{
			URL:        cfg.Typesense.URL,
			APIKey:     cfg.Typesense.APIKey,
			Collection: cfg.IndexName,
			Timeout:    timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Backend)
	}
}
