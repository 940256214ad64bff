package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
	"github.com/title-rag/backend/pkg/retry"
)

const resultSize = 10

var searchFields = []string{"description", "text", "tags"}

type Config struct {
	Addresses []string
	Username  string
	Password  string
	IndexName string
	Timeout   time.Duration
	// Transport replaces the default HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client searches one named index. The index is opened once and reused.
type Client struct {
	es        *elasticsearch.Client
	indexName string
	timeout   time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	logger.Info("Elasticsearch client initialized",
		zap.Strings("addresses", cfg.Addresses),
		zap.String("index", cfg.IndexName),
	)

	return &Client{
		es:        es,
		indexName: cfg.IndexName,
		timeout:   cfg.Timeout,
	}, nil
}

// Ping waits for the cluster to answer, backing off between attempts.
func (c *Client) Ping(ctx context.Context, cfg retry.Config) error {
	return retry.Do(ctx, cfg, "elasticsearch", func(ctx context.Context) error {
		res, err := c.es.Info(c.es.Info.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch info: %s", res.Status())
		}
		return nil
	})
}

func (c *Client) IndexName() string {
	return c.indexName
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Record `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns up to ten records ranked by the index's own scoring.
func (c *Client) Search(ctx context.Context, query string) ([]models.Record, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(searchQuery(query))
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.indexName),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search index %s: %w", c.indexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search index %s: %s", c.indexName, errorReason(res.Body, res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	records := make([]models.Record, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, hit.Source)
	}

	logger.Debug("Elasticsearch search completed",
		zap.String("index", c.indexName),
		zap.Int("hits", len(records)),
	)

	return records, nil
}

func searchQuery(query string) map[string]any {
	return map[string]any{
		"size": resultSize,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  query,
						"fields": searchFields,
						"type":   "best_fields",
					},
				},
			},
		},
	}
}

var indexSettings = map[string]any{
	"settings": map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	},
	"mappings": map[string]any{
		"properties": map[string]any{
			"title":       map[string]string{"type": "text"},
			"description": map[string]string{"type": "text"},
			"tags":        map[string]string{"type": "text"},
			"id":          map[string]string{"type": "keyword"},
		},
	},
}

// RecreateIndex drops the index if it exists and creates it empty with the
// record mapping. Only the ingest command calls this.
func (c *Client) RecreateIndex(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Indices.Delete([]string{c.indexName},
		c.es.Indices.Delete.WithContext(ctx),
		c.es.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", c.indexName, err)
	}
	res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete index %s: %s", c.indexName, res.Status())
	}

	body, err := json.Marshal(indexSettings)
	if err != nil {
		return fmt.Errorf("failed to encode index settings: %w", err)
	}

	res, err = c.es.Indices.Create(c.indexName,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", c.indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", c.indexName, errorReason(res.Body, res.Status()))
	}

	logger.Info("Index created", zap.String("index", c.indexName))
	return nil
}

// IndexRecords writes records with one bulk request and refreshes the index
// so they are searchable on return.
func (c *Client) IndexRecords(ctx context.Context, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		meta := map[string]any{"index": map[string]any{"_index": c.indexName, "_id": string(r.ID)}}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(r); err != nil {
			return 0, fmt.Errorf("failed to encode record %s: %w", r.ID, err)
		}
	}

	res, err := c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk index records: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index: %s", errorReason(res.Body, res.Status()))
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode bulk response: %w", err)
	}

	indexed := 0
	for _, item := range parsed.Items {
		for _, result := range item {
			if result.Error != nil {
				logger.Warn("Record was not indexed",
					zap.Int("status", result.Status),
					zap.String("reason", result.Error.Reason),
				)
				continue
			}
			indexed++
		}
	}

	logger.Info("Records indexed",
		zap.String("index", c.indexName),
		zap.Int("indexed", indexed),
		zap.Int("total", len(records)),
	)

	return indexed, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func errorReason(body io.Reader, status string) string {
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&e); err != nil || e.Error.Reason == "" {
		return status
	}
	return strings.TrimSpace(fmt.Sprintf("%s: %s %s", status, e.Error.Type, e.Error.Reason))
}
