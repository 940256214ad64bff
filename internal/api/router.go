package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/title-rag/backend/internal/api/handlers"
	"github.com/title-rag/backend/internal/metrics"
	"github.com/title-rag/backend/internal/middleware/ratelimit"
	"github.com/title-rag/backend/internal/middleware/security"
	"github.com/title-rag/backend/internal/middleware/validation"
	"github.com/title-rag/backend/pkg/config"
	"github.com/title-rag/backend/pkg/logger"
)

type RecordStore interface {
	handlers.RecordReader
	handlers.FeedbackWriter
}

type Deps struct {
	Engine handlers.Answerer
	Store  RecordStore
	// Stats may be nil when redis is disabled.
	Stats       handlers.StatsRecorder
	RateLimiter *ratelimit.RateLimiter
	Server      config.ServerConfig
	// QueryTimeout bounds a websocket query, which has no request deadline.
	QueryTimeout time.Duration
	// Ready reports whether backing services are reachable.
	Ready func(ctx context.Context) error
	// AccessLog enables the fiber request logger.
	AccessLog bool
}

func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(d.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(d.Server.WriteTimeout) * time.Second,
		BodyLimit:             d.Server.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(security.HeadersMiddleware(security.HeadersConfig{HSTS: d.Server.HSTS}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	queryHandler := handlers.NewQueryHandler(d.Engine, d.Store, d.Stats)
	feedbackHandler := handlers.NewFeedbackHandler(d.Store, d.Stats)
	statsHandler := handlers.NewStatsHandler(d.Stats)
	wsHandler := handlers.NewWebSocketHandler(d.Engine, d.Stats, d.QueryTimeout)

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")

	limited := []fiber.Handler{}
	if d.RateLimiter != nil {
		limited = append(limited, d.RateLimiter.Middleware())
	}

	queryChain := append(append([]fiber.Handler{}, limited...),
		validation.QueryMiddleware(validation.Config{
			MaxQueryLength: d.Server.MaxQueryLength,
			Logger:         logger.GetLogger(),
		}),
		queryHandler.HandleQuery,
	)
	api.Post("/query", queryChain...)
	api.Get("/query/:id", queryHandler.GetQueryRecord)
	api.Post("/feedback", feedbackHandler.HandleFeedback)
	api.Get("/stats", statsHandler.GetStats)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	wsChain := append(append([]fiber.Handler{}, limited...), websocket.New(wsHandler.HandleConnection))
	api.Get("/ws", wsChain...)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if d.Ready != nil {
			if err := d.Ready(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "not ready",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	return app
}
