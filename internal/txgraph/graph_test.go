package txgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/muletrace/internal/domain"
)

func tx(id, from, to string, amount float64) domain.Transaction {
	return domain.Transaction{
		ID:         id,
		SenderID:   from,
		ReceiverID: to,
		Amount:     amount,
		Timestamp:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuild_MultigraphDegrees(t *testing.T) {
	g := Build([]domain.Transaction{
		tx("T1", "A", "B", 10),
		tx("T2", "A", "B", 5),
		tx("T3", "B", "C", 7),
		tx("T4", "C", "C", 1),
	})

	require.Equal(t, 3, g.NodeCount())
	require.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, []string{"A", "B", "C"}, g.Keys())

	a, ok := g.Index("A")
	require.True(t, ok)
	b, _ := g.Index("B")
	c, _ := g.Index("C")

	assert.Equal(t, 2, g.OutDegree(a))
	assert.Equal(t, 2, g.InDegree(b))
	assert.Equal(t, 3, g.Degree(b))
	assert.Equal(t, []int{b}, g.Successors(a), "parallel edges collapse in the successor view")
	assert.Equal(t, 4, g.Degree(c), "self-loop counts towards both in and out degree")
	assert.Equal(t, []int{2, 1, 1}, g.OutDegrees())

	assert.InDelta(t, 15.0, g.Outflow(a), 1e-9)
	assert.InDelta(t, 15.0, g.Inflow(b), 1e-9)
	assert.Len(t, g.OutEdges(a), 2)
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil)
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Empty(t, g.OutDegrees())
}

func TestInducedValue(t *testing.T) {
	g := Build([]domain.Transaction{
		tx("T1", "A", "B", 10),
		tx("T2", "B", "C", 10),
		tx("T3", "C", "A", 10),
		tx("T4", "C", "D", 99),
		tx("T5", "A", "B", 2.5),
	})

	assert.InDelta(t, 32.5, g.InducedValue([]string{"C", "A", "B"}), 1e-9)
	assert.InDelta(t, 12.5, g.InducedValue([]string{"A", "B", "missing"}), 1e-9)
	assert.Zero(t, g.InducedValue(nil))
}
