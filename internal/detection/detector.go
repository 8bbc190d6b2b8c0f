// Package detection implements the ring detectors: bounded cycle enumeration,
// layered shell clustering and temporal fan-in/fan-out (smurfing).
package detection

import (
	"context"
	"strings"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/txgraph"
)

// Input is the read-only snapshot every detector receives.
type Input struct {
	Graph        *txgraph.Graph
	Transactions []domain.Transaction
}

// Detector finds candidate rings of one pattern family. Implementations must
// not mutate the input and must be safe to run concurrently with each other.
type Detector interface {
	Name() string
	Detect(ctx context.Context, in Input) ([]domain.Ring, error)
}

// membershipKey is the canonical identity of an unordered ring: sorted unique
// members plus the pattern.
func membershipKey(pattern domain.PatternType, members []string) string {
	return strings.Join(domain.SortedMembers(members), ",") + "|" + string(pattern)
}
