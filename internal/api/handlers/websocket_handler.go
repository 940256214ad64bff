package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/query"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine  Answerer
	stats   StatsRecorder
	timeout time.Duration
}

func NewWebSocketHandler(engine Answerer, stats StatsRecorder, timeout time.Duration) *WebSocketHandler {
	return &WebSocketHandler{
		engine:  engine,
		stats:   stats,
		timeout: timeout,
	}
}

type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "query" {
			continue
		}

		if err := h.streamAnswer(c, msg); err != nil {
			logger.Error("Failed to stream answer", zap.Error(err))
			_, text := statusFor(err)
			h.sendError(c, text)
		}
	}
}

func (h *WebSocketHandler) streamAnswer(c *websocket.Conn, msg wsMessage) error {
	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := h.send(c, "status", "Processing query..."); err != nil {
		return err
	}

	record, err := h.engine.Run(ctx, query.Request{Query: strings.TrimSpace(msg.Content), Model: msg.Model})
	if err != nil {
		return err
	}

	if h.stats != nil {
		if err := h.stats.RecordAnswer(ctx, record); err != nil {
			logger.Warn("Failed to update stats", zap.Error(err))
		}
	}

	words := strings.Fields(record.Answer)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := h.send(c, "chunk", chunk); err != nil {
			return err
		}
	}

	return h.sendComplete(c, record)
}

func (h *WebSocketHandler) send(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, record *models.QueryRecord) error {
	return c.WriteJSON(map[string]interface{}{
		"type":            "complete",
		"conversation_id": record.ID,
		"record":          record,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
