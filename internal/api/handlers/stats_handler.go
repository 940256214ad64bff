package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/title-rag/backend/pkg/logger"
)

type StatsHandler struct {
	stats StatsRecorder
}

func NewStatsHandler(stats StatsRecorder) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	if h.stats == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Stats are disabled",
		})
	}

	stats, err := h.stats.GetStats(c.UserContext())
	if err != nil {
		logger.Error("Failed to load stats", zap.Error(err))
		return writeError(c, err)
	}

	return c.JSON(stats)
}
