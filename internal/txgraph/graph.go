// Package txgraph builds the immutable directed multigraph the detectors run
// over. Nodes are accounts, edges are transactions.
package txgraph

import (
	"sort"

	"github.com/vanshika/muletrace/internal/domain"
)

// Edge is a single transaction between two node indices.
type Edge struct {
	From          int
	To            int
	Amount        float64
	TransactionID string
}

// Graph is a read-only directed multigraph. Node indices are assigned in the
// order accounts are first observed in the batch.
type Graph struct {
	keys    []string
	index   map[string]int
	edges   []Edge
	out     [][]int // edge indices by source node
	inDeg   []int
	inflow  []float64
	outflow []float64
	succ    [][]int
}

// Build constructs a Graph from a transaction batch. Transactions are assumed
// to be validated.
func Build(txs []domain.Transaction) *Graph {
	g := &Graph{
		index: make(map[string]int),
		edges: make([]Edge, 0, len(txs)),
	}
	for _, tx := range txs {
		from := g.addNode(tx.SenderID)
		to := g.addNode(tx.ReceiverID)

		g.out[from] = append(g.out[from], len(g.edges))
		g.edges = append(g.edges, Edge{
			From:          from,
			To:            to,
			Amount:        tx.Amount,
			TransactionID: tx.ID,
		})
		g.inDeg[to]++
		g.outflow[from] += tx.Amount
		g.inflow[to] += tx.Amount
	}

	g.succ = make([][]int, len(g.keys))
	for v, edgeIdx := range g.out {
		seen := make(map[int]struct{}, len(edgeIdx))
		for _, e := range edgeIdx {
			to := g.edges[e].To
			if _, ok := seen[to]; ok {
				continue
			}
			seen[to] = struct{}{}
			g.succ[v] = append(g.succ[v], to)
		}
	}
	return g
}

func (g *Graph) addNode(key string) int {
	if idx, ok := g.index[key]; ok {
		return idx
	}
	idx := len(g.keys)
	g.index[key] = idx
	g.keys = append(g.keys, key)
	g.out = append(g.out, nil)
	g.inDeg = append(g.inDeg, 0)
	g.inflow = append(g.inflow, 0)
	g.outflow = append(g.outflow, 0)
	return idx
}

// NodeCount returns the number of accounts in the graph.
func (g *Graph) NodeCount() int { return len(g.keys) }

// EdgeCount returns the number of transactions in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Key returns the account key of node v.
func (g *Graph) Key(v int) string { return g.keys[v] }

// Keys returns the account keys in node order.
func (g *Graph) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Index resolves an account key to its node index.
func (g *Graph) Index(key string) (int, bool) {
	idx, ok := g.index[key]
	return idx, ok
}

// OutDegree counts outgoing transactions of v, parallel edges included.
func (g *Graph) OutDegree(v int) int { return len(g.out[v]) }

// InDegree counts incoming transactions of v, parallel edges included.
func (g *Graph) InDegree(v int) int { return g.inDeg[v] }

// Degree is the total degree of v. A self-loop counts twice.
func (g *Graph) Degree(v int) int { return len(g.out[v]) + g.inDeg[v] }

// OutDegrees returns the out-degree sequence in node order.
func (g *Graph) OutDegrees() []int {
	degrees := make([]int, len(g.keys))
	for v := range g.keys {
		degrees[v] = len(g.out[v])
	}
	return degrees
}

// Successors returns the distinct targets of v's outgoing edges in first-seen
// order. The slice must not be modified.
func (g *Graph) Successors(v int) []int { return g.succ[v] }

// OutEdges returns the outgoing edges of v.
func (g *Graph) OutEdges(v int) []Edge {
	edges := make([]Edge, 0, len(g.out[v]))
	for _, e := range g.out[v] {
		edges = append(edges, g.edges[e])
	}
	return edges
}

// Edges returns every edge in insertion order. The slice must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// Inflow is the sum of amounts received by v across the whole batch.
func (g *Graph) Inflow(v int) float64 { return g.inflow[v] }

// Outflow is the sum of amounts sent by v across the whole batch.
func (g *Graph) Outflow(v int) float64 { return g.outflow[v] }

// InducedValue sums the amounts of edges whose endpoints are both members of
// the given account set. Unknown keys are ignored.
func (g *Graph) InducedValue(members []string) float64 {
	inSet := make(map[int]bool, len(members))
	nodes := make([]int, 0, len(members))
	for _, key := range members {
		idx, ok := g.index[key]
		if !ok || inSet[idx] {
			continue
		}
		inSet[idx] = true
		nodes = append(nodes, idx)
	}
	sort.Ints(nodes)

	var total float64
	for _, v := range nodes {
		for _, e := range g.out[v] {
			if inSet[g.edges[e].To] {
				total += g.edges[e].Amount
			}
		}
	}
	return total
}
