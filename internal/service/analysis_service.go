// Package service orchestrates analysis runs over uploaded and stored
// transaction batches and bulk loading of transactions into the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vanshika/muletrace/internal/analysis"
	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/ingest"
	"github.com/vanshika/muletrace/internal/logging"
	"github.com/vanshika/muletrace/internal/repository"
)

// ErrStoreUnavailable is returned by stored-data operations when no graph
// store is configured.
var ErrStoreUnavailable = errors.New("transaction store is not configured")

// Analyzer runs the detection pipeline over one batch.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (domain.AnalysisResult, error)
}

// Store is the persistence contract of the analysis service.
type Store interface {
	TransactionWriter
	LoadTransactions(ctx context.Context, opts repository.LoadOptions) ([]domain.Transaction, error)
	SaveFindings(ctx context.Context, result domain.AnalysisResult, analyzedAt time.Time) error
}

// StoredParams selects the stored transactions to analyze.
type StoredParams struct {
	Start   *time.Time
	End     *time.Time
	Limit   int
	Persist bool // write rings and scores back to the store
}

// Report is an analysis result together with the batch it was computed
// from, which callers need to render the transaction graph.
type Report struct {
	Result       domain.AnalysisResult
	Transactions []domain.Transaction
}

// AnalysisService bounds each run with a deadline and connects the engine
// to CSV uploads and the graph store.
type AnalysisService struct {
	engine  Analyzer
	store   Store
	timeout time.Duration
	logger  *slog.Logger
	nowFn   func() time.Time
}

// NewAnalysisService constructs the service. store may be nil, in which case
// only in-memory batches can be analyzed. A zero timeout disables the
// per-run deadline.
func NewAnalysisService(engine Analyzer, store Store, timeout time.Duration, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AnalysisService{
		engine:  engine,
		store:   store,
		timeout: timeout,
		logger:  logger.With("component", "analysis_service"),
		nowFn:   time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *AnalysisService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// StoreEnabled reports whether stored-data operations are available.
func (s *AnalysisService) StoreEnabled() bool {
	return s.store != nil
}

// AnalyzeTransactions analyzes an in-memory batch.
func (s *AnalysisService) AnalyzeTransactions(ctx context.Context, txs []domain.Transaction) (Report, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	result, err := s.engine.Analyze(ctx, analysis.Input{Transactions: txs})
	if err != nil {
		return Report{}, err
	}
	return Report{Result: result, Transactions: txs}, nil
}

// AnalyzeCSV parses a CSV upload and analyzes it.
func (s *AnalysisService) AnalyzeCSV(ctx context.Context, r io.Reader) (Report, error) {
	txs, err := ingest.ParseCSV(r)
	if err != nil {
		return Report{}, err
	}
	return s.AnalyzeTransactions(ctx, txs)
}

// AnalyzeStored loads a snapshot from the store and analyzes it, optionally
// writing the findings back.
func (s *AnalysisService) AnalyzeStored(ctx context.Context, params StoredParams) (Report, error) {
	if s.store == nil {
		return Report{}, ErrStoreUnavailable
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	txs, err := s.store.LoadTransactions(ctx, repository.LoadOptions{Start: params.Start, End: params.End, Limit: params.Limit})
	if err != nil {
		return Report{}, fmt.Errorf("load snapshot: %w", err)
	}
	s.logger.Debug("loaded snapshot", "transactions", len(txs))

	result, err := s.engine.Analyze(ctx, analysis.Input{Transactions: txs})
	if err != nil {
		return Report{}, err
	}

	if params.Persist {
		if err := s.store.SaveFindings(ctx, result, s.nowFn()); err != nil {
			return Report{}, err
		}
		s.logger.Info("findings saved", "run_id", result.RunID, "rings", len(result.Rings))
	}
	return Report{Result: result, Transactions: txs}, nil
}

func (s *AnalysisService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
