package domain

import (
	"sort"
	"time"
)

// PatternType names the laundering topology a ring was detected by.
type PatternType string

const (
	PatternCycle        PatternType = "Cycle"
	PatternFanIn        PatternType = "Smurfing (Fan-In)"
	PatternFanOut       PatternType = "Smurfing (Fan-Out)"
	PatternLayeredShell PatternType = "Layered Shell"
)

// RingDetail carries detector specific metadata. Only the fields relevant to
// the producing detector are set.
type RingDetail struct {
	PathLength     int
	ClusterSize    int
	WindowStart    *time.Time
	WindowEnd      *time.Time
	Counterparties int
}

// Ring is a raw detection emitted by a single detector.
type Ring struct {
	Pattern PatternType
	Members []string
	Detail  RingDetail
}

// ScoredRing is a deduplicated ring with its identifier and risk figures.
type ScoredRing struct {
	RingID     string
	Members    []string
	Pattern    PatternType
	RiskScore  int
	TotalValue float64
	Detail     RingDetail
}

// SortedMembers returns a sorted copy of the account keys with duplicates
// removed. It is the canonical membership of a ring.
func SortedMembers(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}
