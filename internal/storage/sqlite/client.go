package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/storage"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS queries (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		model_used TEXT NOT NULL,
		response_time REAL NOT NULL,
		relevance TEXT NOT NULL,
		relevance_explanation TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		eval_prompt_tokens INTEGER NOT NULL,
		eval_completion_tokens INTEGER NOT NULL,
		eval_total_tokens INTEGER NOT NULL,
		openai_cost REAL NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_queries_timestamp ON queries(timestamp);
	CREATE INDEX IF NOT EXISTS idx_queries_relevance ON queries(relevance);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query_id TEXT NOT NULL,
		feedback INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		FOREIGN KEY (query_id) REFERENCES queries(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_query ON feedback(query_id);
	`

	_, err := c.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error {
	query := `
		INSERT INTO queries (id, question, answer, model_used, response_time, relevance,
			relevance_explanation, prompt_tokens, completion_tokens, total_tokens,
			eval_prompt_tokens, eval_completion_tokens, eval_total_tokens, openai_cost, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx,
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
		record.CreatedAt.Unix(),
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
		FROM queries WHERE id = ?
	`

	var r models.QueryRecord
	var relevance string
	var createdAt int64

	err := c.db.QueryRowContext(ctx, query, id).Scan(
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
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query record: %w", err)
	}

	if err := r.Relevance.UnmarshalText([]byte(relevance)); err != nil {
		return nil, fmt.Errorf("failed to decode query record %s: %w", id, err)
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &r, nil
}

// InsertFeedback stores a vote on an existing query. An unknown query id
// yields storage.ErrNotFound.
func (c *Client) InsertFeedback(ctx context.Context, feedback *models.Feedback) error {
	var exists int
	err := c.db.QueryRowContext(ctx, `SELECT 1 FROM queries WHERE id = ?`, feedback.QueryID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up query: %w", err)
	}

	createdAt := feedback.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := c.db.ExecContext(ctx,
		`INSERT INTO feedback (query_id, feedback, timestamp) VALUES (?, ?, ?)`,
		feedback.QueryID,
		feedback.Value,
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		feedback.ID = id
	}
	feedback.CreatedAt = createdAt

	logger.Info("Feedback stored",
		zap.String("query_id", feedback.QueryID),
		zap.Int("feedback", feedback.Value),
	)

	return nil
}
