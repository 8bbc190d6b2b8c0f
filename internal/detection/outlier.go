package detection

import (
	"math"

	"github.com/vanshika/muletrace/internal/txgraph"
)

// OutDegreeCap derives an adaptive ceiling on out-degree from the graph's own
// distribution: floor(mean + k*stddev), population standard deviation.
// Accounts above the cap behave like payment hubs and are left out of the
// cycle search. An empty graph yields 0.
func OutDegreeCap(g *txgraph.Graph, k float64) int {
	return capFromDegrees(g.OutDegrees(), k)
}

func capFromDegrees(degrees []int, k float64) int {
	if len(degrees) == 0 {
		return 0
	}

	var sum float64
	for _, d := range degrees {
		sum += float64(d)
	}
	mean := sum / float64(len(degrees))

	var sq float64
	for _, d := range degrees {
		diff := float64(d) - mean
		sq += diff * diff
	}
	std := math.Sqrt(sq / float64(len(degrees)))

	limit := math.Floor(mean + k*std)
	if limit < 0 || math.IsNaN(limit) {
		return 0
	}
	return int(limit)
}
