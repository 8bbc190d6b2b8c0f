package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/txgraph"
)

const (
	ringIDPrefix    = "RING-"
	ringIDHexDigits = 12
)

// RingID derives the identifier of a ring from its membership and pattern:
// "RING-" followed by the first 12 upper-case hex digits of
// SHA-256("<sorted unique members joined by ','>|<pattern>").
func RingID(members []string, pattern domain.PatternType) string {
	canonical := strings.Join(domain.SortedMembers(members), ",") + "|" + string(pattern)
	sum := sha256.Sum256([]byte(canonical))
	return ringIDPrefix + strings.ToUpper(hex.EncodeToString(sum[:])[:ringIDHexDigits])
}

// RingScorer assigns weights, risk scores and ids to detected rings.
type RingScorer struct {
	weights Weights
}

// NewRingScorer returns a scorer using the given weights, or the defaults
// when nil.
func NewRingScorer(weights Weights) *RingScorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &RingScorer{weights: weights}
}

// Score converts rings in order. A ring whose id has already been produced is
// dropped; the first occurrence wins.
func (s *RingScorer) Score(g *txgraph.Graph, rings []domain.Ring) []domain.ScoredRing {
	scored := make([]domain.ScoredRing, 0, len(rings))
	emitted := make(map[string]struct{}, len(rings))

	for _, ring := range rings {
		members := domain.SortedMembers(ring.Members)
		if len(members) == 0 {
			continue
		}
		id := RingID(members, ring.Pattern)
		if _, dup := emitted[id]; dup {
			continue
		}
		emitted[id] = struct{}{}

		var total float64
		if g != nil {
			total = g.InducedValue(members)
		}
		scored = append(scored, domain.ScoredRing{
			RingID:     id,
			Members:    members,
			Pattern:    ring.Pattern,
			RiskScore:  clamp(s.weights.Of(ring.Pattern) + 2*len(members)),
			TotalValue: total,
			Detail:     ring.Detail,
		})
	}
	return scored
}
