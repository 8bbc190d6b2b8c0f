package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanshika/muletrace/internal/analysis"
	"github.com/vanshika/muletrace/internal/config"
	"github.com/vanshika/muletrace/internal/graph"
	"github.com/vanshika/muletrace/internal/ingest"
	"github.com/vanshika/muletrace/internal/logging"
	"github.com/vanshika/muletrace/internal/repository"
	"github.com/vanshika/muletrace/internal/server"
	"github.com/vanshika/muletrace/internal/service"
)

func main() {
	var (
		source  = flag.String("source", "file", "Where to read transactions from: file or graph")
		input   = flag.String("input", "data/transactions.csv", "Path to a transactions .csv or .json file (source=file)")
		start   = flag.String("start", "", "RFC3339 lower bound on transaction time (source=graph)")
		end     = flag.String("end", "", "RFC3339 upper bound on transaction time (source=graph)")
		limit   = flag.Int("limit", 0, "Maximum transactions to load, 0 for all (source=graph)")
		persist = flag.Bool("persist", false, "Write findings back to the graph (source=graph)")
		pretty  = flag.Bool("pretty", true, "Indent the JSON report")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The report goes to stdout, so logs go to stderr.
	logger := logging.NewWithWriter(cfg.Logging, os.Stderr).With("component", "analyze")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine := analysis.New(analysis.OptionsFromConfig(cfg.Analysis), logger)

	var report service.Report
	switch *source {
	case "file":
		txs, err := ingest.ReadFile(*input)
		if err != nil {
			logger.Error("failed to load transactions", "error", err, "path", *input)
			os.Exit(1)
		}
		svc := service.NewAnalysisService(engine, nil, cfg.Analysis.Timeout, logger)
		report, err = svc.AnalyzeTransactions(ctx, txs)
		if err != nil {
			logger.Error("analysis failed", "error", err)
			os.Exit(1)
		}
	case "graph":
		params, err := storedParams(*start, *end, *limit, *persist)
		if err != nil {
			logger.Error("invalid flags", "error", err)
			os.Exit(2)
		}
		graphClient, err := graph.Connect(ctx, logger, cfg.Graph)
		if err != nil {
			logger.Error("failed to create graph client", "error", err)
			os.Exit(1)
		}
		defer graphClient.Close(context.Background())

		svc := service.NewAnalysisService(engine, repository.New(graphClient), cfg.Analysis.Timeout, logger)
		report, err = svc.AnalyzeStored(ctx, params)
		if err != nil {
			logger.Error("analysis failed", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown source %q: want file or graph\n", *source)
		os.Exit(2)
	}

	if err := server.EncodeReport(os.Stdout, report, *pretty); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}
}

func storedParams(start, end string, limit int, persist bool) (service.StoredParams, error) {
	params := service.StoredParams{Limit: limit, Persist: persist}
	if start != "" {
		ts, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return params, fmt.Errorf("start: %w", err)
		}
		params.Start = &ts
	}
	if end != "" {
		ts, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return params, fmt.Errorf("end: %w", err)
		}
		params.End = &ts
	}
	return params, nil
}
