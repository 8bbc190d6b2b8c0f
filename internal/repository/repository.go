// Package repository persists transactions and analysis findings in the
// Neo4j graph and loads transaction snapshots back for analysis.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/graph"
)

// LoadOptions bounds a snapshot by transaction time. Limit <= 0 loads every
// matching transaction.
type LoadOptions struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// EnsureSchema creates the uniqueness constraints the upserts rely on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// UpsertTransactions merges a batch of transfers as TRANSFERRED relationships
// between Account nodes. Re-ingesting a transaction id overwrites it.
func (r *Repository) UpsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return err
		}
		rows = append(rows, transactionParams(tx))
	}

	if _, err := r.client.ExecuteWrite(ctx, upsertTransactionsCypher, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("upsert %d transactions: %w", len(txs), err)
	}
	return nil
}

// LoadTransactions returns the stored transfers inside the window, ordered by
// timestamp then id.
func (r *Repository) LoadTransactions(ctx context.Context, opts LoadOptions) ([]domain.Transaction, error) {
	if opts.Start != nil && opts.End != nil && opts.End.Before(*opts.Start) {
		return nil, errors.New("load window end precedes start")
	}

	params := map[string]any{"start": nil, "end": nil}
	if opts.Start != nil {
		params["start"] = opts.Start.UTC()
	}
	if opts.End != nil {
		params["end"] = opts.End.UTC()
	}
	query := loadTransactionsCypher
	if opts.Limit > 0 {
		query += "\nLIMIT $limit"
		params["limit"] = opts.Limit
	}

	res, err := r.client.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("load transactions query: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(res.Records))
	for _, record := range res.Records {
		tx := domain.Transaction{
			ID:         toString(record["transactionId"]),
			SenderID:   toString(record["senderId"]),
			ReceiverID: toString(record["receiverId"]),
			Amount:     toFloat64(record["amount"]),
		}
		if ts := toTimePtr(record["timestamp"]); ts != nil {
			tx.Timestamp = *ts
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("stored transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// SaveFindings records the rings of one run as Ring nodes linked to their
// member accounts, and stamps each flagged account with its latest score.
func (r *Repository) SaveFindings(ctx context.Context, result domain.AnalysisResult, analyzedAt time.Time) error {
	if len(result.Rings) == 0 && len(result.Accounts) == 0 {
		return nil
	}

	rings := make([]map[string]any, 0, len(result.Rings))
	for _, ring := range result.Rings {
		rings = append(rings, map[string]any{
			"ringId":     ring.RingID,
			"pattern":    string(ring.Pattern),
			"riskScore":  int64(ring.RiskScore),
			"totalValue": ring.TotalValue,
			"members":    ring.Members,
		})
	}
	accounts := make([]map[string]any, 0, len(result.Accounts))
	for _, acc := range result.Accounts {
		patterns := make([]string, 0, len(acc.DetectedPatterns))
		for _, p := range acc.DetectedPatterns {
			patterns = append(patterns, string(p))
		}
		accounts = append(accounts, map[string]any{
			"accountId":      acc.AccountID,
			"suspicionScore": int64(acc.SuspicionScore),
			"patterns":       patterns,
			"ringIds":        acc.RingIDs,
		})
	}

	params := map[string]any{
		"runId":      result.RunID,
		"analyzedAt": analyzedAt.UTC(),
		"rings":      rings,
		"accounts":   accounts,
	}
	if _, err := r.client.ExecuteWrite(ctx, saveFindingsCypher, params); err != nil {
		return fmt.Errorf("save findings for run %s: %w", result.RunID, err)
	}
	return nil
}

func transactionParams(tx domain.Transaction) map[string]any {
	return map[string]any{
		"transactionId": tx.ID,
		"senderId":      tx.SenderID,
		"receiverId":    tx.ReceiverID,
		"amount":        tx.Amount,
		"timestamp":     tx.Timestamp.UTC(),
	}
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case neo4j.LocalDateTime:
		t := v.Time()
		return &t
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE CONSTRAINT account_id IF NOT EXISTS FOR (a:Account) REQUIRE a.accountId IS UNIQUE`,
	`CREATE CONSTRAINT ring_id IF NOT EXISTS FOR (r:Ring) REQUIRE r.ringId IS UNIQUE`,
	`CREATE INDEX transferred_timestamp IF NOT EXISTS FOR ()-[t:TRANSFERRED]-() ON (t.timestamp)`,
}

const upsertTransactionsCypher = `
UNWIND $rows AS row
MERGE (sender:Account {accountId: row.senderId})
MERGE (receiver:Account {accountId: row.receiverId})
MERGE (sender)-[t:TRANSFERRED {transactionId: row.transactionId}]->(receiver)
SET t.amount = row.amount,
	t.timestamp = row.timestamp
`

const loadTransactionsCypher = `
MATCH (sender:Account)-[t:TRANSFERRED]->(receiver:Account)
WHERE ($start IS NULL OR t.timestamp >= $start)
  AND ($end IS NULL OR t.timestamp <= $end)
RETURN t.transactionId AS transactionId,
       sender.accountId AS senderId,
       receiver.accountId AS receiverId,
       t.amount AS amount,
       t.timestamp AS timestamp
ORDER BY t.timestamp, t.transactionId
`

const saveFindingsCypher = `
UNWIND $rings AS ring
MERGE (r:Ring {ringId: ring.ringId})
SET r.pattern = ring.pattern,
	r.riskScore = ring.riskScore,
	r.totalValue = ring.totalValue,
	r.lastRunId = $runId,
	r.lastSeenAt = $analyzedAt
WITH r, ring
UNWIND ring.members AS memberId
MATCH (a:Account {accountId: memberId})
MERGE (a)-[:MEMBER_OF]->(r)
WITH count(*) AS linked
UNWIND $accounts AS acc
MATCH (a:Account {accountId: acc.accountId})
SET a.suspicionScore = acc.suspicionScore,
	a.detectedPatterns = acc.patterns,
	a.ringIds = acc.ringIds,
	a.lastRunId = $runId,
	a.lastAnalyzedAt = $analyzedAt
`
