package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/muletrace/internal/analysis"
	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/repository"
)

var ts = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

type stubStore struct {
	mu        sync.Mutex
	loaded    []domain.Transaction
	loadErr   error
	loadOpts  repository.LoadOptions
	batches   [][]domain.Transaction
	failFirst string
	saved     []domain.AnalysisResult
	savedAt   time.Time
}

func (s *stubStore) UpsertTransactions(_ context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFirst != "" && txs[0].ID == s.failFirst {
		return errors.New("write rejected")
	}
	s.batches = append(s.batches, txs)
	return nil
}

func (s *stubStore) LoadTransactions(_ context.Context, opts repository.LoadOptions) ([]domain.Transaction, error) {
	s.loadOpts = opts
	return s.loaded, s.loadErr
}

func (s *stubStore) SaveFindings(_ context.Context, result domain.AnalysisResult, at time.Time) error {
	s.saved = append(s.saved, result)
	s.savedAt = at
	return nil
}

func triangle() []domain.Transaction {
	return []domain.Transaction{
		{ID: "T1", SenderID: "A", ReceiverID: "B", Amount: 10, Timestamp: ts},
		{ID: "T2", SenderID: "B", ReceiverID: "C", Amount: 10, Timestamp: ts.Add(time.Minute)},
		{ID: "T3", SenderID: "C", ReceiverID: "A", Amount: 10, Timestamp: ts.Add(2 * time.Minute)},
	}
}

func newService(store Store) *AnalysisService {
	return NewAnalysisService(analysis.New(analysis.DefaultOptions(), nil), store, time.Second, nil)
}

func TestAnalysisService_AnalyzeCSV(t *testing.T) {
	csv := "transaction_id,sender_id,receiver_id,amount,timestamp\n" +
		"T1,A,B,10,2024-07-01 12:00:00\n" +
		"T2,B,C,10,2024-07-01 12:01:00\n" +
		"T3,C,A,10,2024-07-01 12:02:00\n"

	report, err := newService(nil).AnalyzeCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, report.Transactions, 3)
	assert.Equal(t, 3, report.Result.Summary.AccountsFlagged)
	assert.Equal(t, domain.PatternCycle, report.Result.Rings[0].Pattern)
}

func TestAnalysisService_AnalyzeCSVInvalid(t *testing.T) {
	_, err := newService(nil).AnalyzeCSV(context.Background(), strings.NewReader("sender_id,receiver_id\nA,B\n"))
	var inputErr *domain.InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestAnalysisService_AnalyzeStored(t *testing.T) {
	store := &stubStore{loaded: triangle()}
	svc := newService(store)
	svc.WithClock(func() time.Time { return ts })

	start := ts.Add(-time.Hour)
	report, err := svc.AnalyzeStored(context.Background(), StoredParams{Start: &start, Limit: 100, Persist: true})
	require.NoError(t, err)

	assert.Equal(t, &start, store.loadOpts.Start)
	assert.Equal(t, 100, store.loadOpts.Limit)
	require.Len(t, store.saved, 1)
	assert.Equal(t, report.Result.RunID, store.saved[0].RunID)
	assert.Equal(t, triangle(), report.Transactions)
	assert.Equal(t, ts, store.savedAt)
}

func TestAnalysisService_AnalyzeStoredErrors(t *testing.T) {
	_, err := newService(nil).AnalyzeStored(context.Background(), StoredParams{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	boom := errors.New("bolt timeout")
	_, err = newService(&stubStore{loadErr: boom}).AnalyzeStored(context.Background(), StoredParams{})
	assert.ErrorIs(t, err, boom)

	store := &stubStore{loaded: triangle()}
	_, err = newService(store).AnalyzeStored(context.Background(), StoredParams{})
	require.NoError(t, err)
	assert.Empty(t, store.saved)
}

func TestBulkIngestor_Batches(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 23; i++ {
		txs = append(txs, domain.Transaction{ID: fmt.Sprintf("T%02d", i), SenderID: "A", ReceiverID: "B", Amount: 1, Timestamp: ts})
	}
	store := &stubStore{}

	require.NoError(t, NewBulkIngestor(store, 3, 5).IngestTransactions(context.Background(), txs))

	require.Len(t, store.batches, 5)
	total := 0
	for _, b := range store.batches {
		assert.LessOrEqual(t, len(b), 5)
		total += len(b)
	}
	assert.Equal(t, 23, total)
}

func TestBulkIngestor_CollectsFailures(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 10; i++ {
		txs = append(txs, domain.Transaction{ID: fmt.Sprintf("T%02d", i), SenderID: "A", ReceiverID: "B", Amount: 1, Timestamp: ts})
	}
	store := &stubStore{failFirst: "T04"}

	err := NewBulkIngestor(store, 2, 2).IngestTransactions(context.Background(), txs)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Len(t, taskErr.Errors, 1)
	assert.Contains(t, err.Error(), "batch at 4")
	assert.Len(t, store.batches, 4)
}

func TestBulkIngestor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txs := triangle()
	err := NewBulkIngestor(&stubStore{}, 1, 1).IngestTransactions(ctx, txs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, NewBulkIngestor(&stubStore{}, 0, 0).IngestTransactions(context.Background(), nil))
}
