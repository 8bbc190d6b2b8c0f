// Package analysis runs the full fraud-ring pipeline over one transaction
// batch: graph construction, concurrent detection, ring scoring and account
// aggregation.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/vanshika/muletrace/internal/detection"
	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/logging"
	"github.com/vanshika/muletrace/internal/metrics"
	"github.com/vanshika/muletrace/internal/scoring"
	"github.com/vanshika/muletrace/internal/tracing"
	"github.com/vanshika/muletrace/internal/txgraph"
)

// Input is one batch to analyze. Accounts is optional and only widens the
// analyzed-account count; every account named by a transaction is analyzed
// regardless.
type Input struct {
	Accounts     []string
	Transactions []domain.Transaction
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	detectors  []detection.Detector
	scorer     *scoring.RingScorer
	aggregator *scoring.AccountAggregator
	logger     *slog.Logger
}

// New constructs an engine with the given tunables.
func New(opts Options, logger *slog.Logger) *Engine {
	return newEngine(opts.detectors(), logger)
}

func newEngine(detectors []detection.Detector, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	weights := scoring.DefaultWeights()
	return &Engine{
		detectors:  detectors,
		scorer:     scoring.NewRingScorer(weights),
		aggregator: scoring.NewAccountAggregator(weights),
		logger:     logger.With("component", "analysis"),
	}
}

// Analyze validates the batch, runs every detector and returns the scored
// rings and ranked suspicious accounts. A detector failure yields a
// *domain.DetectionError naming each failed detector; invalid records yield
// a wrapped *domain.InputError.
func (e *Engine) Analyze(ctx context.Context, in Input) (_ domain.AnalysisResult, err error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)

	ctx, span := tracing.StartSpan(ctx, "analysis.Analyze",
		tracing.RunID(runID), tracing.Transactions(len(in.Transactions)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for i := range in.Transactions {
		if err := in.Transactions[i].Validate(); err != nil {
			metrics.AnalysesTotal.WithLabelValues("invalid_input").Inc()
			return domain.AnalysisResult{}, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	g := txgraph.Build(in.Transactions)
	found, err := e.detect(ctx, logger, detection.Input{Graph: g, Transactions: in.Transactions})
	if err != nil {
		var detErr *domain.DetectionError
		switch {
		case errors.As(err, &detErr):
			metrics.AnalysesTotal.WithLabelValues("detector_failed").Inc()
			logger.Error("detectors failed", "detectors", detErr.Detectors(), "error", err)
		default:
			metrics.AnalysesTotal.WithLabelValues("canceled").Inc()
		}
		return domain.AnalysisResult{}, err
	}

	rings := e.scorer.Score(g, found)
	accounts := e.aggregator.Aggregate(g, rings)
	span.SetAttributes(tracing.Rings(len(rings)))

	result := domain.AnalysisResult{
		RunID:    runID,
		Rings:    rings,
		Accounts: accounts,
		Summary: domain.AnalysisSummary{
			AccountsAnalyzed:     countAccounts(g, in.Accounts),
			AccountsFlagged:      len(accounts),
			RingsDetected:        len(rings),
			TransactionsAnalyzed: len(in.Transactions),
		},
	}
	result.Summary.ProcessingTime = time.Since(start)

	metrics.AnalysesTotal.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.Observe(result.Summary.ProcessingTime.Seconds())
	metrics.TransactionsAnalyzed.Add(float64(len(in.Transactions)))
	metrics.AccountsFlagged.Observe(float64(len(accounts)))
	for _, r := range rings {
		metrics.RingsDetected.WithLabelValues(string(r.Pattern)).Inc()
	}

	logger.Info("analysis complete",
		"transactions", len(in.Transactions),
		"accounts", result.Summary.AccountsAnalyzed,
		"rings", len(rings),
		"flagged", len(accounts),
		"duration", result.Summary.ProcessingTime,
	)
	return result, nil
}

// detect fans the detectors out over the shared read-only snapshot. Every
// detector runs to completion so all failures can be reported together.
// Rings are returned in detector order.
func (e *Engine) detect(ctx context.Context, logger *slog.Logger, in detection.Input) ([]domain.Ring, error) {
	found := make([][]domain.Ring, len(e.detectors))
	failures := make([]*domain.DetectorError, len(e.detectors))

	var eg errgroup.Group
	for i, d := range e.detectors {
		eg.Go(func() error {
			rings, err := runDetector(ctx, d, in)
			if err != nil {
				failures[i] = &domain.DetectorError{Detector: d.Name(), Err: err}
				return failures[i]
			}
			found[i] = rings
			logger.Debug("detector finished", "detector", d.Name(), "rings", len(rings))
			return nil
		})
	}
	if err := eg.Wait(); err == nil {
		var all []domain.Ring
		for _, rings := range found {
			all = append(all, rings...)
		}
		return all, nil
	}

	// Failures caused by cancellation are dropped; any other failure is
	// still reported even if the deadline fired meanwhile.
	ctxErr := ctx.Err()
	detErr := &domain.DetectionError{}
	for _, f := range failures {
		if f == nil || (ctxErr != nil && isContextErr(f.Err)) {
			continue
		}
		detErr.Failures = append(detErr.Failures, f)
	}
	if len(detErr.Failures) == 0 && ctxErr != nil {
		return nil, fmt.Errorf("analysis aborted: %w", ctxErr)
	}
	return nil, detErr
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func runDetector(ctx context.Context, d detection.Detector, in detection.Input) (rings []domain.Ring, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "detection."+d.Name(), tracing.Detector(d.Name()))
	defer func() {
		if r := recover(); r != nil {
			rings, err = nil, fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(tracing.Rings(len(rings)))
		}
		span.End()
		metrics.DetectorDuration.WithLabelValues(d.Name()).Observe(time.Since(start).Seconds())
	}()
	return d.Detect(ctx, in)
}

// countAccounts is the size of the union of graph nodes and listed accounts.
func countAccounts(g *txgraph.Graph, listed []string) int {
	n := g.NodeCount()
	extra := make(map[string]struct{})
	for _, acc := range listed {
		if acc == "" {
			continue
		}
		if _, ok := g.Index(acc); ok {
			continue
		}
		extra[acc] = struct{}{}
	}
	return n + len(extra)
}
