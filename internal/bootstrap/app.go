package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/api"
	"github.com/title-rag/backend/internal/api/handlers"
	"github.com/title-rag/backend/internal/cache/redis"
	"github.com/title-rag/backend/internal/evaluation"
	"github.com/title-rag/backend/internal/llm"
	"github.com/title-rag/backend/internal/metrics"
	"github.com/title-rag/backend/internal/middleware/ratelimit"
	"github.com/title-rag/backend/internal/query"
	"github.com/title-rag/backend/internal/search"
	"github.com/title-rag/backend/internal/storage"
	"github.com/title-rag/backend/internal/storage/postgres"
	"github.com/title-rag/backend/internal/storage/queue"
	"github.com/title-rag/backend/internal/storage/sqlite"
	"github.com/title-rag/backend/pkg/circuitbreaker"
	"github.com/title-rag/backend/pkg/config"
	"github.com/title-rag/backend/pkg/logger"
	"github.com/title-rag/backend/pkg/retry"
)

// App owns every long-lived client the server needs.
type App struct {
	Config      *config.Config
	Index       search.Index
	Store       storage.Store
	Stats       *redis.Client
	MQConn      *amqp.Connection
	Worker      *queue.Worker
	Engine      *query.Engine
	RateLimiter *ratelimit.RateLimiter

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, StartedAt: time.Now()}

	metrics.Init()

	index, err := search.NewIndex(cfg.Search)
	if err != nil {
		return nil, err
	}
	if err := index.Ping(ctx, startupRetry()); err != nil {
		return nil, fmt.Errorf("search backend unreachable: %w", err)
	}
	app.Index = index

	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	app.Store = store
	if err := store.InitSchema(ctx); err != nil {
		app.Close()
		return nil, err
	}

	var recorder storage.QueryRecorder = store
	if cfg.Storage.Mode == "queue" {
		conn, err := queue.Dial(ctx, cfg.RabbitMQ.URL, startupRetry())
		if err != nil {
			app.Close()
			return nil, err
		}
		app.MQConn = conn

		app.Worker = queue.NewWorker(conn, store, cfg.RabbitMQ.Queue)
		if err := app.Worker.Start(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("start query record worker failed: %w", err)
		}
		recorder = queue.NewPublisher(conn, cfg.RabbitMQ.Queue)
	}

	breaker := circuitbreaker.NewCircuitBreaker("query-records", circuitbreaker.Config{
		FailureThreshold: 3,
		Timeout:          30 * time.Second,
		Logger:           logger.GetLogger(),
	})

	if cfg.Redis.Enabled {
		stats, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Stats = stats
	}

	llmClient := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, time.Duration(cfg.LLM.TimeoutSec)*time.Second)

	app.Engine = query.NewEngine(
		index,
		query.NewGenerator(llmClient, cfg.LLM.Model),
		evaluation.NewEvaluator(llmClient, cfg.LLM.EvalModel),
		storage.NewGuarded(recorder, breaker),
		query.NewPriceTable(cfg.Pricing),
	)

	app.RateLimiter = ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.RateLimitPerMinute,
		Logger:               logger.GetLogger(),
	})

	logger.Info("Application initialized",
		zap.String("search_backend", cfg.Search.Backend),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("storage_mode", cfg.Storage.Mode),
		zap.Bool("stats", cfg.Redis.Enabled),
	)

	return app, nil
}

// OpenStore connects to the configured SQL backend without touching the schema.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.NewClient(ctx, cfg.Postgres.DSN)
	case "sqlite", "":
		return sqlite.NewClient(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func (a *App) Deps() api.Deps {
	var stats handlers.StatsRecorder
	if a.Stats != nil {
		stats = a.Stats
	}

	return api.Deps{
		Engine:       a.Engine,
		Store:        a.Store,
		Stats:        stats,
		RateLimiter:  a.RateLimiter,
		Server:       a.Config.Server,
		QueryTimeout: time.Duration(a.Config.LLM.TimeoutSec*2+a.Config.Search.TimeoutSec) * time.Second,
		Ready:        a.Ready,
		AccessLog:    true,
	}
}

// Ready checks the search index with a single attempt.
func (a *App) Ready(ctx context.Context) error {
	return a.Index.Ping(ctx, retry.Config{MaxAttempts: 1})
}

func (a *App) Close() error {
	var closeErr error
	if a.RateLimiter != nil {
		a.RateLimiter.Stop()
	}
	if a.Stats != nil {
		if err := a.Stats.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Worker != nil {
		a.Worker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}

func startupRetry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.Logger = logger.GetLogger()
	return cfg
}
