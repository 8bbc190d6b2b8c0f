package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/muletrace/internal/analysis"
	"github.com/vanshika/muletrace/internal/config"
	"github.com/vanshika/muletrace/internal/graph"
	"github.com/vanshika/muletrace/internal/logging"
	"github.com/vanshika/muletrace/internal/repository"
	"github.com/vanshika/muletrace/internal/server"
	"github.com/vanshika/muletrace/internal/service"
	"github.com/vanshika/muletrace/internal/tracing"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.OTLPEndpoint, logger)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flushing traces failed", "error", err)
		}
	}()

	// The graph store is optional: without it only uploaded batches are analyzed.
	var (
		graphClient graph.Client
		store       service.Store
	)
	if cfg.Graph.Enabled() {
		graphClient, err = graph.Connect(ctx, logger, cfg.Graph)
		if err != nil {
			logger.Error("failed to create graph client", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}()
		store = repository.New(graphClient)
	} else {
		logger.Info("graph store disabled; stored analysis unavailable")
	}

	engine := analysis.New(analysis.OptionsFromConfig(cfg.Analysis), logger)
	analysisService := service.NewAnalysisService(engine, store, cfg.Analysis.Timeout, logger)
	apiHandlers := server.NewAPIHandlers(logger, analysisService, cfg.HTTP.MaxUploadBytes)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.GraphHealthService{Client: graphClient},
		API:              apiHandlers,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
		AllowedOrigins:   server.ParseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
