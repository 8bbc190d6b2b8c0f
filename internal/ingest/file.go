package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanshika/muletrace/internal/domain"
)

// Record is the JSON form of a transaction.
type Record struct {
	TransactionID string  `json:"transaction_id"`
	SenderID      string  `json:"sender_id"`
	ReceiverID    string  `json:"receiver_id"`
	Amount        float64 `json:"amount"`
	Timestamp     string  `json:"timestamp"`
}

// ReadFile loads transactions from a .csv or .json file.
func ReadFile(path string) ([]domain.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var records []Record
		if err := json.NewDecoder(file).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return FromRecords(records)
	default:
		txs, err := ParseCSV(file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return txs, nil
	}
}

// FromRecords converts JSON records, numbering rows from 1.
func FromRecords(records []Record) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(records))
	for i, rec := range records {
		ts, err := ParseTimestamp(rec.Timestamp)
		if err != nil {
			return nil, &domain.InputError{Row: i + 1, Field: ColumnTimestamp, Reason: "is not a recognised timestamp", TransactionID: rec.TransactionID}
		}
		tx := domain.Transaction{
			ID:         strings.TrimSpace(rec.TransactionID),
			SenderID:   strings.TrimSpace(rec.SenderID),
			ReceiverID: strings.TrimSpace(rec.ReceiverID),
			Amount:     rec.Amount,
			Timestamp:  ts,
		}
		if err := tx.Validate(); err != nil {
			var inputErr *domain.InputError
			if errors.As(err, &inputErr) {
				inputErr.Row = i + 1
			}
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ToRecords is the inverse of FromRecords.
func ToRecords(txs []domain.Transaction) []Record {
	records := make([]Record, 0, len(txs))
	for _, tx := range txs {
		records = append(records, Record{
			TransactionID: tx.ID,
			SenderID:      tx.SenderID,
			ReceiverID:    tx.ReceiverID,
			Amount:        tx.Amount,
			Timestamp:     tx.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return records
}
