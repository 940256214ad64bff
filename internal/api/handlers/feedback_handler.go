package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/metrics"
	"github.com/title-rag/backend/internal/storage"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

type FeedbackWriter interface {
	InsertFeedback(ctx context.Context, feedback *models.Feedback) error
}

type FeedbackHandler struct {
	store FeedbackWriter
	stats StatsRecorder
}

func NewFeedbackHandler(store FeedbackWriter, stats StatsRecorder) *FeedbackHandler {
	return &FeedbackHandler{
		store: store,
		stats: stats,
	}
}

func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Feedback       *int   `json:"feedback"`
	}

	if err := c.BodyParser(&req); err != nil || req.Feedback == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" || !models.ValidFeedback(*req.Feedback) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	feedback := &models.Feedback{
		QueryID: conversationID,
		Value:   *req.Feedback,
	}

	if err := h.store.InsertFeedback(c.UserContext(), feedback); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Error("Failed to store feedback", zap.String("query_id", conversationID), zap.Error(err))
		}
		return writeError(c, err)
	}

	metrics.UserFeedback.WithLabelValues(strconv.Itoa(feedback.Value)).Inc()
	if h.stats != nil {
		if err := h.stats.RecordFeedback(c.UserContext(), feedback.Value); err != nil {
			logger.Warn("Failed to update stats", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Feedback received for conversation %s: feedback: %d", conversationID, feedback.Value),
	})
}
