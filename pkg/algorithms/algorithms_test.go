package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
)

// chain builds 0 -> 1 -> 2 -> 0 plus 3 -> 4 and an isolated 5.
func chain(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(core.NewSession(core.DefaultLabels(), nil))
	for i := 0; i < 6; i++ {
		g.AddVertex("alert")
	}
	for _, p := range [][2]int64{{0, 1}, {1, 2}, {2, 0}, {3, 4}, {4, 4}, {0, 1}} {
		_, err := g.AddEdge(p[0], p[1], "link")
		require.NoError(t, err)
	}
	return g
}

func assertDisjointCover(t *testing.T, g *graph.Graph, p Partition) {
	t.Helper()
	seen := make(map[int64]bool)
	for _, set := range p {
		for _, id := range set {
			assert.False(t, seen[id], "vertex %d appears twice", id)
			seen[id] = true
		}
	}
	assert.Equal(t, g.Order(), p.Len())
}

func TestStronglyConnectedComponents(t *testing.T) {
	g := chain(t)
	p, err := NewGonum(nil).StronglyConnectedComponents(g)
	require.NoError(t, err)

	assert.Equal(t, Partition{{0, 1, 2}, {3}, {4}, {5}}, p)
	assertDisjointCover(t, g, p)
}

// weighted builds two tight triangles joined by one heavy bridge.
func weighted(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(core.NewSession(core.DefaultLabels(), nil))
	for i := 0; i < 6; i++ {
		g.AddVertex("alert")
	}
	add := func(a, b int64, w float64) {
		e, err := g.AddEdge(a, b, "distance")
		require.NoError(t, err)
		e.Attrs.Put("difference", core.Double(w))
	}
	add(0, 1, 1)
	add(1, 2, 1)
	add(2, 0, 1.5)
	add(3, 4, 1)
	add(4, 5, 1)
	add(5, 3, 1.5)
	add(2, 3, 10)
	return g
}

func TestKSpanningTree(t *testing.T) {
	g := weighted(t)
	a := NewGonum(nil)

	p, err := a.Cluster(g, "kspanning", 2)
	require.NoError(t, err)
	assert.Equal(t, Partition{{0, 1, 2}, {3, 4, 5}}, p)

	one, err := a.Cluster(g, "cl", 1)
	require.NoError(t, err)
	assert.Equal(t, Partition{{0, 1, 2, 3, 4, 5}}, one)

	all, err := a.Cluster(g, "spanning", 100)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assertDisjointCover(t, g, all)
}

func TestLouvain(t *testing.T) {
	g := graph.New(core.NewSession(core.DefaultLabels(), nil))
	for i := 0; i < 8; i++ {
		g.AddVertex("alert")
	}
	// Two 4-cliques, no bridge.
	for _, base := range []int64{0, 4} {
		for i := base; i < base+4; i++ {
			for j := i + 1; j < base+4; j++ {
				_, err := g.AddEdge(i, j, "link")
				require.NoError(t, err)
			}
		}
	}

	p, err := NewGonum(nil).Cluster(g, "louvain", 2)
	require.NoError(t, err)
	assert.Equal(t, Partition{{0, 1, 2, 3}, {4, 5, 6, 7}}, p)
}

func TestClusterErrors(t *testing.T) {
	g := weighted(t)
	a := NewGonum(nil)

	_, err := a.Cluster(g, "spectral", 2)
	assert.True(t, errors.Is(err, errors.ErrAlgorithm))

	_, err = a.Cluster(g, "kspanning", 0)
	assert.True(t, errors.Is(err, errors.ErrAlgorithm))
}

func TestEmptyGraph(t *testing.T) {
	g := graph.New(core.NewSession(core.DefaultLabels(), nil))
	a := NewGonum(nil)

	p, err := a.StronglyConnectedComponents(g)
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = a.Cluster(g, "louvain", 3)
	require.NoError(t, err)
	assert.Empty(t, p)
}
