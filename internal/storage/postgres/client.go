package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/storage"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

// foreignKeyViolation is the SQLSTATE for a feedback row naming a missing query.
const foreignKeyViolation = "23503"

type Client struct {
	pool *pgxpool.Pool
}

func NewClient(ctx context.Context, dsn string) (*Client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Postgres client initialized",
		zap.String("host", pool.Config().ConnConfig.Host),
		zap.String("database", pool.Config().ConnConfig.Database),
	)

	return &Client{pool: pool}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS queries (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		model_used TEXT NOT NULL,
		response_time FLOAT NOT NULL,
		relevance TEXT NOT NULL,
		relevance_explanation TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		eval_prompt_tokens INTEGER NOT NULL,
		eval_completion_tokens INTEGER NOT NULL,
		eval_total_tokens INTEGER NOT NULL,
		openai_cost FLOAT NOT NULL,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS feedback (
		id SERIAL PRIMARY KEY,
		query_id TEXT REFERENCES queries(id),
		feedback INTEGER NOT NULL,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL
	);
	`

	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Postgres schema initialized")
	return nil
}

func (c *Client) InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error {
	query := `
		INSERT INTO queries (id, question, answer, model_used, response_time, relevance,
			relevance_explanation, prompt_tokens, completion_tokens, total_tokens,
			eval_prompt_tokens, eval_completion_tokens, eval_total_tokens, openai_cost, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := c.pool.Exec(ctx,
		query,
		record.ID,
		record.Query,
		record.Answer,
		record.Model,
		record.ResponseTime,
		record.Relevance.String(),
		record.RelevanceExplanation,
		record.PromptTokens,
		record.CompletionTokens,
		record.TotalTokens,
		record.EvalPromptTokens,
		record.EvalCompletionTokens,
		record.EvalTotalTokens,
		record.Cost,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	logger.Info("Query recorded",
		zap.String("query_id", record.ID),
		zap.String("relevance", record.Relevance.String()),
	)
	return nil
}

func (c *Client) GetQueryRecord(ctx context.Context, id string) (*models.QueryRecord, error) {
	query := `
		SELECT id, question, answer, model_used, response_time, relevance, relevance_explanation,
			prompt_tokens, completion_tokens, total_tokens,
			eval_prompt_tokens, eval_completion_tokens, eval_total_tokens, openai_cost, timestamp
		FROM queries WHERE id = $1
	`

	var r models.QueryRecord
	var relevance string

	err := c.pool.QueryRow(ctx, query, id).Scan(
		&r.ID,
		&r.Query,
		&r.Answer,
		&r.Model,
		&r.ResponseTime,
		&relevance,
		&r.RelevanceExplanation,
		&r.PromptTokens,
		&r.CompletionTokens,
		&r.TotalTokens,
		&r.EvalPromptTokens,
		&r.EvalCompletionTokens,
		&r.EvalTotalTokens,
		&r.Cost,
		&r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query record: %w", err)
	}

	if err := r.Relevance.UnmarshalText([]byte(relevance)); err != nil {
		return nil, fmt.Errorf("failed to decode query record %s: %w", id, err)
	}
	r.CreatedAt = r.CreatedAt.UTC()

	return &r, nil
}

func (c *Client) InsertFeedback(ctx context.Context, feedback *models.Feedback) error {
	createdAt := feedback.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := c.pool.QueryRow(ctx,
		`INSERT INTO feedback (query_id, feedback, timestamp) VALUES ($1, $2, $3) RETURNING id`,
		feedback.QueryID,
		feedback.Value,
		createdAt,
	).Scan(&feedback.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to store feedback: %w", err)
	}
	feedback.CreatedAt = createdAt

	logger.Info("Feedback stored",
		zap.String("query_id", feedback.QueryID),
		zap.Int("feedback", feedback.Value),
	)
	return nil
}
