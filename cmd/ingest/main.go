package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/bootstrap"
	"github.com/title-rag/backend/internal/ingestion"
	"github.com/title-rag/backend/internal/search"
	"github.com/title-rag/backend/pkg/config"
	appLogger "github.com/title-rag/backend/pkg/logger"
	"github.com/title-rag/backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	dataPath := flag.String("data", cfg.Ingest.DataPath, "CSV export with id, title, tags and description columns")
	initDB := flag.Bool("init-db", false, "also create the query and feedback tables")
	flag.Parse()

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *dataPath, *initDB); err != nil {
		appLogger.Error("Ingestion failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dataPath string, initDB bool) error {
	index, err := search.NewIndex(cfg.Search)
	if err != nil {
		return err
	}

	probe := retry.DefaultConfig()
	probe.Logger = appLogger.GetLogger()
	if err := index.Ping(ctx, probe); err != nil {
		return fmt.Errorf("search backend unreachable: %w", err)
	}

	indexed, err := ingestion.NewProcessor(index).Ingest(ctx, dataPath)
	if err != nil {
		return err
	}
	appLogger.Info("Ingestion complete", zap.Int("indexed", indexed))

	if !initDB {
		return nil
	}

	store, err := bootstrap.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	appLogger.Info("Database schema ready", zap.String("driver", cfg.Storage.Driver))
	return nil
}
