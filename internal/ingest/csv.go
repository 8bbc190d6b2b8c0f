// Package ingest reads transaction batches from CSV and JSON sources.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/muletrace/internal/domain"
)

// Column names of the transaction CSV format.
const (
	ColumnTransactionID = "transaction_id"
	ColumnSenderID      = "sender_id"
	ColumnReceiverID    = "receiver_id"
	ColumnAmount        = "amount"
	ColumnTimestamp     = "timestamp"
)

// Columns lists the required header, in the order WriteCSV emits it.
var Columns = []string{ColumnTransactionID, ColumnSenderID, ColumnReceiverID, ColumnAmount, ColumnTimestamp}

// ErrEmptyInput is returned when a source has no header row.
var ErrEmptyInput = errors.New("input is empty")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and the common naive layouts; naive values
// are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// ParseCSV reads a header row followed by one transaction per row. Extra
// columns are ignored. Rows are numbered from 1 for the header, so the first
// data row is row 2 in any returned *domain.InputError.
func ParseCSV(r io.Reader) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var txs []domain.Transaction
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &domain.InputError{Row: row, Reason: parseErr.Err.Error()}
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if blank(record) {
			continue
		}
		tx, err := parseRecord(record, index, row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.InputError{Row: 1, Field: "header", Reason: "missing columns " + strings.Join(missing, ", ")}
	}
	return index, nil
}

func parseRecord(record []string, index map[string]int, row int) (domain.Transaction, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	tx := domain.Transaction{
		ID:         field(ColumnTransactionID),
		SenderID:   field(ColumnSenderID),
		ReceiverID: field(ColumnReceiverID),
	}

	amount, err := strconv.ParseFloat(field(ColumnAmount), 64)
	if err != nil {
		return domain.Transaction{}, &domain.InputError{Row: row, Field: ColumnAmount, Reason: "is not a number", TransactionID: tx.ID}
	}
	tx.Amount = amount

	ts, err := ParseTimestamp(field(ColumnTimestamp))
	if err != nil {
		return domain.Transaction{}, &domain.InputError{Row: row, Field: ColumnTimestamp, Reason: "is not a recognised timestamp", TransactionID: tx.ID}
	}
	tx.Timestamp = ts

	if err := tx.Validate(); err != nil {
		var inputErr *domain.InputError
		if errors.As(err, &inputErr) {
			inputErr.Row = row
		}
		return domain.Transaction{}, err
	}
	return tx, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes txs in the format ParseCSV reads.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		record := []string{
			tx.ID,
			tx.SenderID,
			tx.ReceiverID,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			tx.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
