package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crawlstack/distsearch/internal/store"
)

func sumRanks(ranks map[string]float64) float64 {
	var total float64
	for _, r := range ranks {
		total += r
	}
	return total
}

func TestSingleNodeGraph(t *testing.T) {
	// A single webpage with no outgoing edges at all has no edge rows, so
	// build the graph directly with one dangling node.
	g := &Graph{Out: map[string][]string{"A": nil}, IsWebpage: map[string]bool{"A": true}}
	ranks := Compute(g)
	assert.InDelta(t, 1.0, ranks["A"], 1e-9)
}

func TestTwoNodeCycleEqualRanks(t *testing.T) {
	g := &Graph{
		Out:       map[string][]string{"A": {"B"}, "B": {"A"}},
		IsWebpage: map[string]bool{"A": true, "B": true},
	}
	ranks := Compute(g)
	assert.InDelta(t, ranks["A"], ranks["B"], 1e-9)
	assert.InDelta(t, 1.0, sumRanks(ranks), 1e-6)
}

func TestThreeCycleConvergesToThird(t *testing.T) {
	g := &Graph{
		Out: map[string][]string{
			"A": {"B"},
			"B": {"C"},
			"C": {"A"},
		},
		IsWebpage: map[string]bool{"A": true, "B": true, "C": true},
	}
	ranks := Compute(g)
	assert.InDelta(t, 1.0/3.0, ranks["A"], 1e-6)
	assert.InDelta(t, 1.0/3.0, ranks["B"], 1e-6)
	assert.InDelta(t, 1.0/3.0, ranks["C"], 1e-6)
	assert.InDelta(t, 1.0, sumRanks(ranks), 1e-6)
}

func TestDanglingAtoB(t *testing.T) {
	g := &Graph{
		Out:       map[string][]string{"A": {"B"}, "B": nil},
		IsWebpage: map[string]bool{"A": true, "B": true},
	}
	ranks := Compute(g)
	assert.InDelta(t, 0.353, ranks["A"], 0.01)
	assert.InDelta(t, 0.647, ranks["B"], 0.01)
	assert.InDelta(t, 1.0, sumRanks(ranks), 1e-6)
}

func TestDanglingStar(t *testing.T) {
	g := &Graph{
		Out: map[string][]string{
			"hub": {"l1", "l2", "l3"},
			"l1":  nil,
			"l2":  nil,
			"l3":  nil,
		},
		IsWebpage: map[string]bool{"hub": true, "l1": true, "l2": true, "l3": true},
	}
	ranks := Compute(g)
	assert.InDelta(t, ranks["l1"], ranks["l2"], 1e-9)
	assert.InDelta(t, ranks["l2"], ranks["l3"], 1e-9)
	assert.InDelta(t, 1.0, sumRanks(ranks), 1e-6)
}

func TestBuildGraphDedupsMultiEdges(t *testing.T) {
	edges := []store.LinkEdge{
		{SourceWebpageID: "A", TargetURL: "https://example.com/b"},
		{SourceWebpageID: "A", TargetURL: "https://example.com/b"},
	}
	g := BuildGraph(edges)
	assert.Len(t, g.Out["A"], 1)
}

func TestWebpageRanksFiltersNonWebpageNodes(t *testing.T) {
	edges := []store.LinkEdge{
		{SourceWebpageID: "A", TargetURL: "https://unvisited.example.com/"},
	}
	g := BuildGraph(edges)
	ranks := Compute(g)
	webpageRanks := WebpageRanks(g, ranks)
	assert.Contains(t, webpageRanks, "A")
	assert.Len(t, webpageRanks, 1)
}
