package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

const statsKey = "title_rag:stats"

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Stats are running totals across all instances sharing the redis.
type Stats struct {
	Queries    int64            `json:"queries"`
	Relevance  map[string]int64 `json:"relevance"`
	ThumbsUp   int64            `json:"thumbs_up"`
	ThumbsDown int64            `json:"thumbs_down"`
	CostUSD    float64          `json:"openai_cost"`
}

func (c *Client) RecordAnswer(ctx context.Context, record *models.QueryRecord) error {
	pipe := c.client.TxPipeline()
	pipe.HIncrBy(ctx, statsKey, "queries", 1)
	pipe.HIncrBy(ctx, statsKey, "relevance:"+record.Relevance.String(), 1)
	pipe.HIncrByFloat(ctx, statsKey, "openai_cost", record.Cost)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update answer stats: %w", err)
	}
	return nil
}

func (c *Client) RecordFeedback(ctx context.Context, value int) error {
	field := "feedback:up"
	if value < 0 {
		field = "feedback:down"
	}
	if err := c.client.HIncrBy(ctx, statsKey, field, 1).Err(); err != nil {
		return fmt.Errorf("failed to update feedback stats: %w", err)
	}
	return nil
}

func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	fields, err := c.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return parseStats(fields), nil
}

func parseStats(fields map[string]string) *Stats {
	stats := &Stats{Relevance: make(map[string]int64)}
	for _, r := range []models.Relevance{
		models.RelevanceRelevant,
		models.RelevancePartlyRelevant,
		models.RelevanceNonRelevant,
		models.RelevanceUnknown,
	} {
		stats.Relevance[r.String()] = 0
	}

	for field, raw := range fields {
		switch field {
		case "queries":
			stats.Queries, _ = strconv.ParseInt(raw, 10, 64)
		case "feedback:up":
			stats.ThumbsUp, _ = strconv.ParseInt(raw, 10, 64)
		case "feedback:down":
			stats.ThumbsDown, _ = strconv.ParseInt(raw, 10, 64)
		case "openai_cost":
			stats.CostUSD, _ = strconv.ParseFloat(raw, 64)
		default:
			if label, ok := strings.CutPrefix(field, "relevance:"); ok {
				n, _ := strconv.ParseInt(raw, 10, 64)
				stats.Relevance[label] = n
			}
		}
	}
	return stats
}
