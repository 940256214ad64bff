package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/title-rag/backend/internal/query"
	"github.com/title-rag/backend/internal/storage"
)

// statusFor maps pipeline and storage errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	var retrievalErr *query.RetrievalError
	var generationErr *query.GenerationError

	switch {
	case errors.Is(err, query.ErrEmptyQuery):
		return fiber.StatusBadRequest, "No query provided"
	case errors.As(err, &retrievalErr):
		return fiber.StatusBadGateway, "Search backend unavailable"
	case errors.As(err, &generationErr):
		return fiber.StatusBadGateway, "Language model unavailable"
	case errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status, msg := statusFor(err)
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
