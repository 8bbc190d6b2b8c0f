// Package scoring turns raw detections into deduplicated, scored rings and
// per-account suspicion records.
package scoring

import "github.com/vanshika/muletrace/internal/domain"

// UnknownPatternWeight applies to patterns missing from the weight table.
const UnknownPatternWeight = 10

const maxScore = 100

// Weights maps a pattern to the base weight it contributes to ring and
// account scores.
type Weights map[domain.PatternType]int

// DefaultWeights returns the standard weight table.
func DefaultWeights() Weights {
	return Weights{
		domain.PatternCycle:        40,
		domain.PatternFanIn:        30,
		domain.PatternFanOut:       30,
		domain.PatternLayeredShell: 20,
	}
}

// Of returns the weight of a pattern.
func (w Weights) Of(p domain.PatternType) int {
	if weight, ok := w[p]; ok {
		return weight
	}
	return UnknownPatternWeight
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
