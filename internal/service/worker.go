package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vanshika/muletrace/internal/domain"
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 500
)

// TaskError accumulates the failed batches of one bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d batches failed:", len(e.Errors))
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// TransactionWriter persists one batch of transactions.
type TransactionWriter interface {
	UpsertTransactions(ctx context.Context, txs []domain.Transaction) error
}

// BulkIngestor writes large transaction sets to the store in fixed-size
// batches spread over a worker pool.
type BulkIngestor struct {
	writer    TransactionWriter
	workers   int
	batchSize int
}

// NewBulkIngestor creates a BulkIngestor. Non-positive workers or batchSize
// fall back to defaults.
func NewBulkIngestor(writer TransactionWriter, workers, batchSize int) *BulkIngestor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BulkIngestor{
		writer:    writer,
		workers:   workers,
		batchSize: batchSize,
	}
}

// IngestTransactions writes txs batch by batch. Failed batches do not stop
// the others; their errors are returned together as a *TaskError.
// Cancellation stops dispatch and is returned as is.
func (bi *BulkIngestor) IngestTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	type batch struct {
		first int
		txs   []domain.Transaction
	}
	batches := make(chan batch)
	errCh := make(chan error, (len(txs)+bi.batchSize-1)/bi.batchSize)
	var wg sync.WaitGroup

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batches {
				if err := bi.writer.UpsertTransactions(ctx, b.txs); err != nil {
					errCh <- fmt.Errorf("batch at %d: %w", b.first, err)
				}
			}
		}()
	}

Dispatch:
	for start := 0; start < len(txs); start += bi.batchSize {
		end := min(start+bi.batchSize, len(txs))
		select {
		case batches <- batch{first: start, txs: txs[start:end]}:
		case <-ctx.Done():
			break Dispatch
		}
	}
	close(batches)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
