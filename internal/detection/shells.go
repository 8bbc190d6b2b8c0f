package detection

import (
	"context"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/txgraph"
)

const (
	DefaultShellMinDegree = 2
	DefaultShellMaxDegree = 3
	DefaultShellMinHops   = 3
)

// ShellDetector clusters thin pass-through accounts. Accounts whose total
// degree lies in [MinDegree, MaxDegree] form an induced subgraph; each weakly
// connected component with two or more accounts is one layered shell ring.
//
// MinHops records the chain length the heuristic targets
// (X -> S1 -> S2 -> Y). It is not applied as a filter.
type ShellDetector struct {
	MinDegree int
	MaxDegree int
	MinHops   int
}

// NewShellDetector returns a detector, substituting defaults for
// non-positive arguments.
func NewShellDetector(minDegree, maxDegree, minHops int) *ShellDetector {
	if minDegree <= 0 {
		minDegree = DefaultShellMinDegree
	}
	if maxDegree <= 0 {
		maxDegree = DefaultShellMaxDegree
	}
	if minHops <= 0 {
		minHops = DefaultShellMinHops
	}
	return &ShellDetector{MinDegree: minDegree, MaxDegree: maxDegree, MinHops: minHops}
}

func (d *ShellDetector) Name() string { return "shell" }

func (d *ShellDetector) Detect(ctx context.Context, in Input) ([]domain.Ring, error) {
	g := in.Graph
	if g == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// pos maps a node to its slot in the candidate list, -1 when excluded
	pos := make([]int, g.NodeCount())
	var candidates []int
	for v := range pos {
		pos[v] = -1
		if deg := g.Degree(v); deg >= d.MinDegree && deg <= d.MaxDegree {
			pos[v] = len(candidates)
			candidates = append(candidates, v)
		}
	}
	if len(candidates) < 2 {
		return nil, nil
	}

	uf := newUnionFind(len(candidates))
	for i, v := range candidates {
		for _, w := range g.Successors(v) {
			if pos[w] >= 0 && w != v {
				uf.union(i, pos[w])
			}
		}
	}

	return shellRings(g, candidates, uf), nil
}

func shellRings(g *txgraph.Graph, candidates []int, uf *unionFind) []domain.Ring {
	groupOf := make(map[int]int)
	var groups [][]string
	for i, v := range candidates {
		root := uf.find(i)
		idx, ok := groupOf[root]
		if !ok {
			idx = len(groups)
			groupOf[root] = idx
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], g.Key(v))
	}

	var rings []domain.Ring
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		rings = append(rings, domain.Ring{
			Pattern: domain.PatternLayeredShell,
			Members: members,
			Detail:  domain.RingDetail{ClusterSize: len(members)},
		})
	}
	return rings
}

// unionFind is a weighted union-find with path compression over dense
// integer ids.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
	return true
}
