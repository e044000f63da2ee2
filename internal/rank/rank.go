// Package rank computes PageRank over the link graph stored by the crawler,
// as a straightforward, allocation-light implementation that runs each
// iteration to completion without suspension.
package rank

import (
	"github.com/google/uuid"

	"github.com/crawlstack/distsearch/internal/store"
)

// TargetNamespace is the fixed namespace UUID used to derive a deterministic
// node id for a link target that has no Webpage row yet.
var TargetNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

const (
	// Damping is the PageRank damping factor d.
	Damping = 0.85
	// Iterations is the fixed number of PageRank passes.
	Iterations = 100
)

// TargetNodeID maps a raw link target URL to a stable node id.
func TargetNodeID(targetURL string) string {
	return uuid.NewSHA1(TargetNamespace, []byte(targetURL)).String()
}

// Graph is the deduplicated adjacency of the link graph: for every source
// node, the distinct set of node ids it points to.
type Graph struct {
	// Out holds per-node outgoing edges.
	Out map[string][]string
	// IsWebpage records which node ids are real stored webpages (as opposed
	// to not-yet-crawled link targets), so the persistence step only writes
	// ranks for rows that exist.
	IsWebpage map[string]bool
}

// BuildGraph collapses the raw (source, target_url) edge rows into a
// deduplicated adjacency, mapping every target URL to its stable node id
// and discarding duplicate edges from the same source.
func BuildGraph(edges []store.LinkEdge) *Graph {
	g := &Graph{Out: make(map[string][]string), IsWebpage: make(map[string]bool)}
	seen := make(map[string]map[string]bool)

	for _, e := range edges {
		g.IsWebpage[e.SourceWebpageID] = true
		if _, ok := g.Out[e.SourceWebpageID]; !ok {
			g.Out[e.SourceWebpageID] = nil
			seen[e.SourceWebpageID] = make(map[string]bool)
		}

		targetID := TargetNodeID(e.TargetURL)
		if seen[e.SourceWebpageID][targetID] {
			continue
		}
		seen[e.SourceWebpageID][targetID] = true
		g.Out[e.SourceWebpageID] = append(g.Out[e.SourceWebpageID], targetID)

		if _, ok := g.Out[targetID]; !ok {
			g.Out[targetID] = nil
		}
	}
	return g
}

// Nodes returns every node id participating in the graph.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.Out))
	for n := range g.Out {
		nodes = append(nodes, n)
	}
	return nodes
}

// Compute runs the fixed-iteration PageRank algorithm, redistributing
// dangling mass uniformly every iteration so total rank is preserved. No
// post-scaling is applied; a consumer that needs scaled ranks should scale
// at read time.
func Compute(g *Graph) map[string]float64 {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	rank := make(map[string]float64, n)
	init := 1.0 / float64(n)
	for _, node := range nodes {
		rank[node] = init
	}

	for i := 0; i < Iterations; i++ {
		rank = iterate(g, nodes, rank, n)
	}
	return rank
}

func iterate(g *Graph, nodes []string, rank map[string]float64, n int) map[string]float64 {
	var danglingMass float64
	for _, node := range nodes {
		if len(g.Out[node]) == 0 {
			danglingMass += rank[node]
		}
	}

	base := (1 - Damping) / float64(n)
	danglingShare := Damping * danglingMass / float64(n)

	next := make(map[string]float64, n)
	for _, node := range nodes {
		next[node] = base + danglingShare
	}

	for _, node := range nodes {
		outDegree := len(g.Out[node])
		if outDegree == 0 {
			continue
		}
		share := Damping * rank[node] / float64(outDegree)
		for _, target := range g.Out[node] {
			next[target] += share
		}
	}
	return next
}

// WebpageRanks filters a full node-id -> rank map down to just the ids that
// correspond to stored Webpage rows, ready for Store.UpdateRanks.
func WebpageRanks(g *Graph, ranks map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(g.IsWebpage))
	for id := range g.IsWebpage {
		out[id] = ranks[id]
	}
	return out
}
