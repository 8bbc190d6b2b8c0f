package detection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/txgraph"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type edgeSpec struct {
	from, to string
	amount   float64
	offset   time.Duration
}

func buildInput(edges ...edgeSpec) Input {
	txs := make([]domain.Transaction, 0, len(edges))
	for i, e := range edges {
		amount := e.amount
		if amount == 0 {
			amount = 10
		}
		txs = append(txs, domain.Transaction{
			ID:         fmt.Sprintf("TX-%04d", i+1),
			SenderID:   e.from,
			ReceiverID: e.to,
			Amount:     amount,
			Timestamp:  baseTime.Add(e.offset),
		})
	}
	return Input{Graph: txgraph.Build(txs), Transactions: txs}
}

func chain(keys ...string) []edgeSpec {
	edges := make([]edgeSpec, 0, len(keys))
	for i := range keys {
		edges = append(edges, edgeSpec{from: keys[i], to: keys[(i+1)%len(keys)], offset: time.Duration(i) * time.Second})
	}
	return edges
}

func runDetector(t *testing.T, d Detector, in Input) []domain.Ring {
	t.Helper()
	rings, err := d.Detect(context.Background(), in)
	require.NoError(t, err)
	return rings
}

func ringsOf(rings []domain.Ring, pattern domain.PatternType) []domain.Ring {
	var out []domain.Ring
	for _, r := range rings {
		if r.Pattern == pattern {
			out = append(out, r)
		}
	}
	return out
}
