package typesense

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
	"github.com/title-rag/backend/pkg/retry"
)

const resultSize = 10

var queryBy = strings.Join([]string{"description", "text", "tags"}, ",")

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Client searches a single Typesense collection.
type Client struct {
	client     *typesense.Client
	collection string
	timeout    time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(timeout),
	)

	logger.Info("Typesense client initialized",
		zap.String("url", cfg.URL),
		zap.String("collection", cfg.Collection),
	)

	return &Client{
		client:     client,
		collection: cfg.Collection,
		timeout:    timeout,
	}
}

func (c *Client) Ping(ctx context.Context, cfg retry.Config) error {
	return retry.Do(ctx, cfg, "typesense", func(ctx context.Context) error {
		ok, err := c.client.Health(ctx, 2*time.Second)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("typesense reports unhealthy")
		}
		return nil
	})
}

func (c *Client) IndexName() string {
	return c.collection
}

func (c *Client) Search(ctx context.Context, query string) ([]models.Record, error) {
	result, err := c.client.Collection(c.collection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String(queryBy),
		PerPage: pointer.Int(resultSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", c.collection, err)
	}

	if result.Hits == nil {
		return []models.Record{}, nil
	}

	records := make([]models.Record, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		record, err := decodeDocument(*hit.Document)
		if err != nil {
			logger.Warn("Skipping undecodable search hit", zap.Error(err))
			continue
		}
		records = append(records, record)
	}

	logger.Debug("Typesense search completed",
		zap.String("collection", c.collection),
		zap.Int("hits", len(records)),
	)

	return records, nil
}

// decodeDocument passes the stored fields through unchanged.
func decodeDocument(doc map[string]interface{}) (models.Record, error) {
	var record models.Record
	data, err := json.Marshal(doc)
	if err != nil {
		return record, err
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, err
	}
	return record, nil
}

// RecreateIndex drops the collection if present and creates it again.
func (c *Client) RecreateIndex(ctx context.Context) error {
	if _, err := c.client.Collection(c.collection).Retrieve(ctx); err == nil {
		if _, err := c.client.Collection(c.collection).Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", c.collection, err)
		}
	}

	schema := &api.CollectionSchema{
		Name: c.collection,
		Fields: []api.Field{
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "tags", Type: "string"},
			{Name: "text", Type: "string", Optional: pointer.True()},
		},
	}

	if _, err := c.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", c.collection, err)
	}

	logger.Info("Collection created", zap.String("collection", c.collection))
	return nil
}

func (c *Client) IndexRecords(ctx context.Context, records []models.Record) (int, error) {
	indexed := 0
	for _, r := range records {
		if _, err := c.client.Collection(c.collection).Documents().Upsert(ctx, r); err != nil {
			logger.Warn("Record was not indexed",
				zap.String("id", string(r.ID)),
				zap.Error(err),
			)
			continue
		}
		indexed++
	}

	logger.Info("Records indexed",
		zap.String("collection", c.collection),
		zap.Int("indexed", indexed),
		zap.Int("total", len(records)),
	)

	if indexed == 0 && len(records) > 0 {
		return 0, fmt.Errorf("no records could be indexed into %s", c.collection)
	}
	return indexed, nil
}
