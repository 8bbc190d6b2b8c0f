package detection

import (
	"context"
	"strings"

	"github.com/vanshika/muletrace/internal/domain"
	"github.com/vanshika/muletrace/internal/txgraph"
)

const (
	DefaultMinCycleLen   = 3
	DefaultMaxCycleLen   = 5
	DefaultCapMultiplier = 2.0

	// cancellation is polled once per this many expansion steps
	cancelCheckInterval = 1 << 12
)

// CycleDetector enumerates simple directed cycles whose length lies in
// [MinLen, MaxLen]. Each physical cycle is reported once.
//
// Accounts whose out-degree exceeds OutDegreeCap are treated as having no
// outgoing edges: they are neither search origins nor intermediate hops, so
// a cycle routed through a hub is not reported.
type CycleDetector struct {
	MinLen        int
	MaxLen        int
	CapMultiplier float64
}

// NewCycleDetector returns a detector, substituting defaults for
// non-positive lengths and a negative multiplier. A zero multiplier is kept:
// the cap is then the mean out-degree.
func NewCycleDetector(minLen, maxLen int, capMultiplier float64) *CycleDetector {
	if minLen <= 0 {
		minLen = DefaultMinCycleLen
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxCycleLen
	}
	if capMultiplier < 0 {
		capMultiplier = DefaultCapMultiplier
	}
	return &CycleDetector{MinLen: minLen, MaxLen: maxLen, CapMultiplier: capMultiplier}
}

func (d *CycleDetector) Name() string { return "cycle" }

// Detect runs the bounded search over every candidate origin.
func (d *CycleDetector) Detect(ctx context.Context, in Input) ([]domain.Ring, error) {
	g := in.Graph
	if g == nil || g.NodeCount() == 0 || d.MaxLen < d.MinLen {
		return nil, nil
	}

	limit := OutDegreeCap(g, d.CapMultiplier)
	adj := make([][]int, g.NodeCount())
	for v := range adj {
		if g.OutDegree(v) <= limit {
			adj[v] = g.Successors(v)
		}
	}

	var (
		rings []domain.Ring
		seen  = make(map[string]struct{})
		tc    = newTraversal(g.NodeCount(), d.MaxLen)
		steps int
	)

	for start := 0; start < g.NodeCount(); start++ {
		if g.InDegree(start) == 0 || len(adj[start]) == 0 {
			continue
		}

		tc.push(start)
		for len(tc.frames) > 0 {
			steps++
			if steps%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}

			top := &tc.frames[len(tc.frames)-1]
			neighbors := adj[top.node]
			if top.next >= len(neighbors) {
				tc.pop()
				continue
			}
			next := neighbors[top.next]
			top.next++

			switch {
			case next == start:
				if n := len(tc.path); n >= d.MinLen && n <= d.MaxLen {
					members, key := canonicalCycle(g, tc.path)
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						rings = append(rings, domain.Ring{
							Pattern: domain.PatternCycle,
							Members: members,
							Detail:  domain.RingDetail{PathLength: n},
						})
					}
				}
			case !tc.onPath[next] && len(tc.path) < d.MaxLen:
				tc.push(next)
			}
		}
	}

	return rings, nil
}

type frame struct {
	node int
	next int // index of the next successor to try
}

// traversal is the owned DFS state shared by every origin of one run. The path
// never grows beyond maxLen, so the buffers are allocated once.
type traversal struct {
	path   []int
	onPath []bool
	frames []frame
}

func newTraversal(nodes, maxLen int) *traversal {
	return &traversal{
		path:   make([]int, 0, maxLen),
		onPath: make([]bool, nodes),
		frames: make([]frame, 0, maxLen),
	}
}

func (t *traversal) push(v int) {
	t.path = append(t.path, v)
	t.onPath[v] = true
	t.frames = append(t.frames, frame{node: v})
}

func (t *traversal) pop() {
	v := t.frames[len(t.frames)-1].node
	t.frames = t.frames[:len(t.frames)-1]
	t.path = t.path[:len(t.path)-1]
	t.onPath[v] = false
}

// canonicalCycle rotates the path so the smallest account key comes first and
// returns the rotated keys with a lookup key for the seen-set.
func canonicalCycle(g *txgraph.Graph, path []int) ([]string, string) {
	minPos := 0
	for i := 1; i < len(path); i++ {
		if g.Key(path[i]) < g.Key(path[minPos]) {
			minPos = i
		}
	}
	members := make([]string, len(path))
	for i := range path {
		members[i] = g.Key(path[(minPos+i)%len(path)])
	}
	return members, strings.Join(members, "\x00")
}
