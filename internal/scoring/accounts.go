package scoring

import (
	"sort"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/txgraph"
)

// accountTally is the mutable per-account accumulator for one run.
type accountTally struct {
	id       string
	score    int
	patterns map[domain.PatternType]struct{}
	ringIDs  []string
	ringSet  map[string]struct{}
}

// AccountAggregator folds scored rings into per-account suspicion records.
type AccountAggregator struct {
	weights Weights
}

// NewAccountAggregator returns an aggregator using the given weights, or the
// defaults when nil.
func NewAccountAggregator(weights Weights) *AccountAggregator {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &AccountAggregator{weights: weights}
}

// Aggregate adds each ring's pattern weight to every member, clamps the totals
// to [0,100] and attaches batch-wide flow figures from g. The result is sorted
// by descending score; ties keep the order in which accounts were first
// reached while walking rings.
func (a *AccountAggregator) Aggregate(g *txgraph.Graph, rings []domain.ScoredRing) []domain.SuspiciousAccount {
	tallies := make(map[string]*accountTally)
	var order []*accountTally

	for _, ring := range rings {
		weight := a.weights.Of(ring.Pattern)
		for _, member := range ring.Members {
			t, ok := tallies[member]
			if !ok {
				t = &accountTally{
					id:       member,
					patterns: make(map[domain.PatternType]struct{}),
					ringSet:  make(map[string]struct{}),
				}
				tallies[member] = t
				order = append(order, t)
			}
			t.score += weight
			t.patterns[ring.Pattern] = struct{}{}
			if _, seen := t.ringSet[ring.RingID]; !seen {
				t.ringSet[ring.RingID] = struct{}{}
				t.ringIDs = append(t.ringIDs, ring.RingID)
			}
		}
	}

	accounts := make([]domain.SuspiciousAccount, 0, len(order))
	for _, t := range order {
		acc := domain.SuspiciousAccount{
			AccountID:        t.id,
			SuspicionScore:   clamp(t.score),
			DetectedPatterns: sortedPatterns(t.patterns),
			RingIDs:          t.ringIDs,
		}
		if g != nil {
			if v, ok := g.Index(t.id); ok {
				acc.TotalInflow = g.Inflow(v)
				acc.TotalOutflow = g.Outflow(v)
				acc.NetBalance = acc.TotalInflow - acc.TotalOutflow
			}
		}
		accounts = append(accounts, acc)
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].SuspicionScore > accounts[j].SuspicionScore
	})
	return accounts
}

func sortedPatterns(set map[domain.PatternType]struct{}) []domain.PatternType {
	out := make([]domain.PatternType, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
