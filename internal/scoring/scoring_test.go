package scoring

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/txgraph"
)

func triangleGraph() *txgraph.Graph {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return txgraph.Build([]domain.Transaction{
		{ID: "T1", SenderID: "A", ReceiverID: "B", Amount: 10, Timestamp: ts},
		{ID: "T2", SenderID: "B", ReceiverID: "C", Amount: 10, Timestamp: ts.Add(time.Second)},
		{ID: "T3", SenderID: "C", ReceiverID: "A", Amount: 10, Timestamp: ts.Add(2 * time.Second)},
		{ID: "T4", SenderID: "C", ReceiverID: "OUT", Amount: 500, Timestamp: ts.Add(3 * time.Second)},
	})
}

func TestRingID_Deterministic(t *testing.T) {
	id := RingID([]string{"C", "A", "B"}, domain.PatternCycle)

	assert.Regexp(t, regexp.MustCompile(`^RING-[0-9A-F]{12}$`), id)
	assert.Equal(t, id, RingID([]string{"A", "B", "C"}, domain.PatternCycle))
	assert.Equal(t, id, RingID([]string{"B", "C", "A", "A"}, domain.PatternCycle))
	assert.NotEqual(t, id, RingID([]string{"A", "B", "C"}, domain.PatternLayeredShell))
	assert.NotEqual(t, id, RingID([]string{"A", "B", "D"}, domain.PatternCycle))
}

func TestRingScorer_ScoreAndValue(t *testing.T) {
	scored := NewRingScorer(nil).Score(triangleGraph(), []domain.Ring{
		{Pattern: domain.PatternCycle, Members: []string{"B", "C", "A"}, Detail: domain.RingDetail{PathLength: 3}},
	})

	require.Len(t, scored, 1)
	ring := scored[0]
	assert.Equal(t, []string{"A", "B", "C"}, ring.Members)
	assert.Equal(t, 46, ring.RiskScore)
	assert.InDelta(t, 30.0, ring.TotalValue, 1e-9)
	assert.Equal(t, 3, ring.Detail.PathLength)
}

func TestRingScorer_Weights(t *testing.T) {
	rings := []domain.Ring{
		{Pattern: domain.PatternFanIn, Members: []string{"H", "S1"}},
		{Pattern: domain.PatternFanOut, Members: []string{"H", "R1"}},
		{Pattern: domain.PatternLayeredShell, Members: []string{"S1", "S2"}},
		{Pattern: domain.PatternType("Mystery"), Members: []string{"M1", "M2"}},
	}
	scored := NewRingScorer(nil).Score(nil, rings)

	require.Len(t, scored, 4)
	assert.Equal(t, 34, scored[0].RiskScore)
	assert.Equal(t, 34, scored[1].RiskScore)
	assert.Equal(t, 24, scored[2].RiskScore)
	assert.Equal(t, 14, scored[3].RiskScore)
	assert.Zero(t, scored[0].TotalValue)
}

func TestRingScorer_RiskClamped(t *testing.T) {
	members := make([]string, 40)
	for i := range members {
		members[i] = fmt.Sprintf("ACC-%02d", i)
	}
	scored := NewRingScorer(nil).Score(nil, []domain.Ring{{Pattern: domain.PatternFanIn, Members: members}})

	require.Len(t, scored, 1)
	assert.Equal(t, 100, scored[0].RiskScore)
}

func TestRingScorer_DuplicatesCollapse(t *testing.T) {
	rings := []domain.Ring{
		{Pattern: domain.PatternCycle, Members: []string{"A", "B", "C"}},
		{Pattern: domain.PatternLayeredShell, Members: []string{"C", "B", "A"}},
		{Pattern: domain.PatternCycle, Members: []string{"C", "A", "B"}},
	}

	forward := NewRingScorer(nil).Score(triangleGraph(), rings)
	reversed := NewRingScorer(nil).Score(triangleGraph(), []domain.Ring{rings[2], rings[1], rings[0]})

	require.Len(t, forward, 2)
	ids := func(scored []domain.ScoredRing) []string {
		var out []string
		for _, r := range scored {
			out = append(out, r.RingID)
		}
		return out
	}
	assert.ElementsMatch(t, ids(forward), ids(reversed))
}

func TestRingScorer_SkipsEmptyRings(t *testing.T) {
	assert.Empty(t, NewRingScorer(nil).Score(nil, []domain.Ring{{Pattern: domain.PatternCycle}}))
}

func TestAccountAggregator_Accumulates(t *testing.T) {
	g := triangleGraph()
	rings := NewRingScorer(nil).Score(g, []domain.Ring{
		{Pattern: domain.PatternCycle, Members: []string{"A", "B", "C"}},
		{Pattern: domain.PatternLayeredShell, Members: []string{"A", "B", "C"}},
		{Pattern: domain.PatternLayeredShell, Members: []string{"C", "OUT"}},
	})
	accounts := NewAccountAggregator(nil).Aggregate(g, rings)

	require.Len(t, accounts, 4)
	byID := make(map[string]domain.SuspiciousAccount)
	for _, acc := range accounts {
		byID[acc.AccountID] = acc
	}

	c := byID["C"]
	assert.Equal(t, 80, c.SuspicionScore)
	assert.Equal(t, []domain.PatternType{domain.PatternCycle, domain.PatternLayeredShell}, c.DetectedPatterns)
	assert.Len(t, c.RingIDs, 3)
	assert.InDelta(t, 10.0, c.TotalInflow, 1e-9)
	assert.InDelta(t, 510.0, c.TotalOutflow, 1e-9)
	assert.InDelta(t, -500.0, c.NetBalance, 1e-9)

	assert.Equal(t, 60, byID["A"].SuspicionScore)
	assert.Equal(t, 20, byID["OUT"].SuspicionScore)
	assert.Equal(t, "C", accounts[0].AccountID)
	assert.Equal(t, "OUT", accounts[3].AccountID)
}

func TestAccountAggregator_ScoreClamped(t *testing.T) {
	var rings []domain.ScoredRing
	for i := 0; i < 4; i++ {
		members := []string{"MULE", fmt.Sprintf("P%d", i), fmt.Sprintf("Q%d", i)}
		rings = append(rings, domain.ScoredRing{
			RingID:  RingID(members, domain.PatternCycle),
			Members: members,
			Pattern: domain.PatternCycle,
		})
	}

	accounts := NewAccountAggregator(nil).Aggregate(nil, rings)

	require.NotEmpty(t, accounts)
	assert.Equal(t, "MULE", accounts[0].AccountID)
	assert.Equal(t, 100, accounts[0].SuspicionScore)
	assert.Len(t, accounts[0].RingIDs, 4)
}

func TestAccountAggregator_TiesKeepFirstSeenOrder(t *testing.T) {
	rings := []domain.ScoredRing{
		{RingID: "RING-1", Members: []string{"Z", "Y"}, Pattern: domain.PatternLayeredShell},
		{RingID: "RING-2", Members: []string{"A", "B"}, Pattern: domain.PatternLayeredShell},
	}
	accounts := NewAccountAggregator(nil).Aggregate(nil, rings)

	var order []string
	for _, acc := range accounts {
		order = append(order, acc.AccountID)
	}
	assert.Equal(t, []string{"Z", "Y", "A", "B"}, order)
}
