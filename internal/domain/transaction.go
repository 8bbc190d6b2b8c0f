package domain

import (
	"math"
	"time"
)

// Transaction is a single transfer between two accounts. Transactions are the
// edges of the analysis graph; several may exist between the same pair.
type Transaction struct {
	ID         string
	SenderID   string
	ReceiverID string
	Amount     float64
	Timestamp  time.Time
}

// Validate checks the fields the detection engine relies on.
func (tx Transaction) Validate() error {
	switch {
	case tx.ID == "":
		return &InputError{Field: "transaction_id", Reason: "is required"}
	case tx.SenderID == "":
		return &InputError{Field: "sender_id", Reason: "is required", TransactionID: tx.ID}
	case tx.ReceiverID == "":
		return &InputError{Field: "receiver_id", Reason: "is required", TransactionID: tx.ID}
	case tx.Amount < 0 || math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0):
		return &InputError{Field: "amount", Reason: "must be a non-negative number", TransactionID: tx.ID}
	case tx.Timestamp.IsZero():
		return &InputError{Field: "timestamp", Reason: "is required", TransactionID: tx.ID}
	}
	return nil
}
