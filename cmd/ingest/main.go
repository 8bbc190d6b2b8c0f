package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanshika/muletrace/internal/config"
	"github.com/vanshika/muletrace/internal/graph"
	"github.com/vanshika/muletrace/internal/ingest"
	"github.com/vanshika/muletrace/internal/logging"
	"github.com/vanshika/muletrace/internal/repository"
	"github.com/vanshika/muletrace/internal/service"
)

func main() {
	var (
		input     = flag.String("input", "data/transactions.csv", "Path to a transactions .csv or .json file")
		workers   = flag.Int("workers", 4, "Number of concurrent writers")
		batchSize = flag.Int("batch-size", 500, "Transactions per write batch")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	txs, err := ingest.ReadFile(*input)
	if err != nil {
		logger.Error("failed to load transactions", "error", err, "path", *input)
		os.Exit(1)
	}
	if len(txs) == 0 {
		logger.Error("transactions dataset empty", "path", *input)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cfg.Graph.Enabled() {
		logger.Error("GRAPH_URI is required for ingestion")
		os.Exit(1)
	}
	graphClient, err := graph.Connect(ctx, logger, cfg.Graph)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	repo := repository.New(graphClient)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	ingestor := service.NewBulkIngestor(repo, *workers, *batchSize)

	start := time.Now()
	logger.Info("ingesting transactions", "count", len(txs), "workers", *workers, "batch_size", *batchSize)
	if err := ingestor.IngestTransactions(ctx, txs); err != nil {
		logger.Error("transaction ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String(), "transactions", len(txs))
}
