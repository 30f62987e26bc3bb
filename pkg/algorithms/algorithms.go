// Package algorithms adapts the graph model to gonum's graph algorithms.
//
// The pipeline only sees the Algorithms interface: it hands over a graph and
// receives a partition of vertex ids, which it reports without interpreting.
package algorithms

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"go.uber.org/zap"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
)

// Clustering algorithm names accepted by Cluster.
const (
	KSpanningTree = "kspanning"
	Louvain       = "louvain"
)

// Partition is a list of disjoint vertex id sets. Sets are sorted ascending
// and ordered by their smallest id.
type Partition [][]int64

// Algorithms is the graph-algorithms capability the pipeline delegates to.
type Algorithms interface {
	StronglyConnectedComponents(g *graph.Graph) (Partition, error)
	Cluster(g *graph.Graph, algorithm string, k int) (Partition, error)
}

// Gonum implements Algorithms with gonum.org/v1/gonum/graph.
type Gonum struct {
	log *zap.SugaredLogger
}

// NewGonum creates the gonum-backed implementation.
func NewGonum(log *zap.SugaredLogger) *Gonum {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Gonum{log: log.Named("algorithms")}
}

// ParseAlgorithm resolves a clustering algorithm name.
func ParseAlgorithm(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case KSpanningTree, "spanning", "kspanningtree", "cl":
		return KSpanningTree, nil
	case Louvain, "modularity":
		return Louvain, nil
	}
	return "", errors.WithHint(
		errors.Wrapf(errors.ErrAlgorithm, "unknown clustering algorithm %q", name),
		"use kspanning or louvain",
	)
}

// StronglyConnectedComponents returns the strongly connected components of g
// (Tarjan). Self-loops and parallel edges do not affect the result.
func (a *Gonum) StronglyConnectedComponents(g *graph.Graph) (Partition, error) {
	dg := simple.NewDirectedGraph()
	for _, v := range g.Vertices() {
		dg.AddNode(simple.Node(v.ID))
	}
	for _, e := range g.Edges() {
		if e.IsLoop() || dg.HasEdgeFromTo(e.Source, e.Target) {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(e.Source), simple.Node(e.Target)))
	}

	p := toPartition(topo.TarjanSCC(dg))
	a.log.Debugw("Strongly connected components", "vertices", g.Order(), "components", len(p))
	return p, nil
}

// Cluster partitions the undirected view of g into clusters.
//
// kspanning builds a minimum spanning forest over edge weights and removes
// its k-1 heaviest edges, leaving k clusters when the graph is connected.
// louvain maximizes modularity on the unweighted view; k is not used.
func (a *Gonum) Cluster(g *graph.Graph, algorithm string, k int) (Partition, error) {
	name, err := ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, errors.Wrapf(errors.ErrAlgorithm, "cluster count must be at least 1, got %d", k)
	}

	var p Partition
	switch name {
	case KSpanningTree:
		p = kSpanningTree(g, k)
	case Louvain:
		p = louvain(g)
	}
	a.log.Debugw("Clustering done", "algorithm", name, "k", k, "clusters", len(p))
	return p, nil
}

func kSpanningTree(g *graph.Graph, k int) Partition {
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, v := range g.Vertices() {
		wg.AddNode(simple.Node(v.ID))
	}
	for _, e := range g.Edges() {
		if e.IsLoop() {
			continue
		}
		w := e.Weight()
		// Parallel edges collapse to the lightest one.
		if old := wg.WeightedEdge(e.Source, e.Target); old != nil && old.Weight() <= w {
			continue
		}
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(e.Source), simple.Node(e.Target), w))
	}

	forest := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(forest, wg)

	edges := gonumgraph.WeightedEdgesOf(forest.WeightedEdges())
	slices.SortFunc(edges, func(x, y gonumgraph.WeightedEdge) int {
		if c := cmp.Compare(y.Weight(), x.Weight()); c != 0 {
			return c
		}
		xa, xb := ordered(x)
		ya, yb := ordered(y)
		if c := cmp.Compare(xa, ya); c != 0 {
			return c
		}
		return cmp.Compare(xb, yb)
	})
	for i := 0; i < k-1 && i < len(edges); i++ {
		forest.RemoveEdge(edges[i].From().ID(), edges[i].To().ID())
	}

	return toPartition(topo.ConnectedComponents(forest))
}

func ordered(e gonumgraph.Edge) (int64, int64) {
	a, b := e.From().ID(), e.To().ID()
	if a > b {
		a, b = b, a
	}
	return a, b
}

// louvainSeed fixes the node visiting order so a graph always yields the
// same communities.
const louvainSeed = 1

func louvain(g *graph.Graph) Partition {
	ug := simple.NewUndirectedGraph()
	for _, v := range g.Vertices() {
		ug.AddNode(simple.Node(v.ID))
	}
	for _, e := range g.Edges() {
		if e.IsLoop() || ug.HasEdgeBetween(e.Source, e.Target) {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(e.Source), simple.Node(e.Target)))
	}
	if ug.Nodes().Len() == 0 {
		return Partition{}
	}
	return toPartition(community.Modularize(ug, 1, rand.NewPCG(louvainSeed, louvainSeed)).Communities())
}

func toPartition(sets [][]gonumgraph.Node) Partition {
	p := make(Partition, 0, len(sets))
	for _, set := range sets {
		if len(set) == 0 {
			continue
		}
		ids := make([]int64, len(set))
		for i, n := range set {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		p = append(p, ids)
	}
	slices.SortFunc(p, func(a, b []int64) int { return cmp.Compare(a[0], b[0]) })
	return p
}

// Len returns the number of vertices covered by the partition.
func (p Partition) Len() int {
	n := 0
	for _, set := range p {
		n += len(set)
	}
	return n
}
