package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/cache/redis"
	"github.com/title-rag/backend/internal/middleware/validation"
	"github.com/title-rag/backend/internal/query"
	"github.com/title-rag/backend/internal/storage"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

type Answerer interface {
	Run(ctx context.Context, req query.Request) (*models.QueryRecord, error)
}

type RecordReader interface {
	GetQueryRecord(ctx context.Context, id string) (*models.QueryRecord, error)
}

// StatsRecorder is satisfied by the redis stats client. It is optional.
type StatsRecorder interface {
	RecordAnswer(ctx context.Context, record *models.QueryRecord) error
	RecordFeedback(ctx context.Context, value int) error
	GetStats(ctx context.Context) (*redis.Stats, error)
}

type QueryHandler struct {
	engine  Answerer
	records RecordReader
	stats   StatsRecorder
}

func NewQueryHandler(engine Answerer, records RecordReader, stats StatsRecorder) *QueryHandler {
	return &QueryHandler{
		engine:  engine,
		records: records,
		stats:   stats,
	}
}

type queryResponse struct {
	ConversationID string              `json:"conversation_id"`
	Title          string              `json:"title"`
	Record         *models.QueryRecord `json:"record"`
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var req struct {
		Query string `json:"query"`
		Model string `json:"model"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if sanitized, ok := c.Locals(validation.LocalsQuery).(string); ok {
		req.Query = sanitized
	}

	record, err := h.engine.Run(c.UserContext(), query.Request{Query: req.Query, Model: req.Model})
	if err != nil {
		logger.Error("Failed to process query", zap.Error(err))
		return writeError(c, err)
	}

	h.recordStats(c.UserContext(), record)

	return c.JSON(queryResponse{
		ConversationID: record.ID,
		Title:          record.Answer,
		Record:         record,
	})
}

func (h *QueryHandler) GetQueryRecord(c *fiber.Ctx) error {
	id := c.Params("id")

	record, err := h.records.GetQueryRecord(c.UserContext(), id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Error("Failed to load query record", zap.String("query_id", id), zap.Error(err))
		}
		return writeError(c, err)
	}

	return c.JSON(record)
}

func (h *QueryHandler) recordStats(ctx context.Context, record *models.QueryRecord) {
	if h.stats == nil {
		return
	}
	if err := h.stats.RecordAnswer(ctx, record); err != nil {
		logger.Warn("Failed to update stats", zap.Error(err))
	}
}
