// Package engine provides the similarity-graph enrichment engine.
//
// It computes normalized distances between the vertices of a label over a set
// of numeric attributes, materializes the pairs that pass relative thresholds
// as new edges, ranks vertices by immersion (aggregate distance to their
// peers) or connectivity (aggregate incident edge weight), and delegates
// partitioning to a graph-algorithms capability.
//
// Basic usage:
//
//	s := core.NewSession(core.DefaultLabels(), log)
//	g := graph.New(s)
//	// ... populate g ...
//	eng := engine.New(g, engine.DefaultOptions())
//	report, err := eng.AddDistanceEdges(engine.DistanceRequest{
//	    VertexLabel:    "alert",
//	    Metric:         distance.Quadratic,
//	    RelationLabel:  "distance",
//	    ValueAttribute: "difference",
//	    MaxFraction:    1,
//	})
//
// An Engine is not safe for concurrent use: it mutates its graph in place and
// every call runs to completion before returning.
package engine

import (
	"go.uber.org/zap"

	"github.com/sanonone/kektorgraph/pkg/algorithms"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
)

// Options configures an Engine.
type Options struct {
	// Algorithms receives STRONG-CONNECTIVITY and CLUSTER requests.
	// Defaults to the gonum implementation.
	Algorithms algorithms.Algorithms

	// ImmersionAttribute is the vertex attribute immersion scores are stored
	// under. Default: "immersion".
	ImmersionAttribute string

	Logger *zap.SugaredLogger
}

// DefaultOptions returns the options used when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		ImmersionAttribute: "immersion",
	}
}

// Engine runs enrichment and ranking operations on one graph.
type Engine struct {
	graph *graph.Graph
	algs  algorithms.Algorithms
	opts  Options
	log   *zap.SugaredLogger
}

// New creates an engine bound to g.
func New(g *graph.Graph, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = g.Session().Logger()
	}
	log = log.Named("engine")
	if opts.Algorithms == nil {
		opts.Algorithms = algorithms.NewGonum(log)
	}
	if opts.ImmersionAttribute == "" {
		opts.ImmersionAttribute = DefaultOptions().ImmersionAttribute
	}
	return &Engine{
		graph: g,
		algs:  opts.Algorithms,
		opts:  opts,
		log:   log,
	}
}

// Graph returns the graph the engine operates on.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// StronglyConnectedComponents delegates to the configured algorithms.
func (e *Engine) StronglyConnectedComponents() (algorithms.Partition, error) {
	p, err := e.algs.StronglyConnectedComponents(e.graph)
	if err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrAlgorithm), "strong connectivity")
	}
	e.log.Infow("Strongly connected sets", "count", len(p))
	for _, set := range p {
		e.log.Debugw("Strongly connected set", "vertices", set)
	}
	return p, nil
}

// Cluster delegates to the configured algorithms.
func (e *Engine) Cluster(algorithm string, k int) (algorithms.Partition, error) {
	e.log.Infow("Searching for clusters", "algorithm", algorithm, "k", k)
	p, err := e.algs.Cluster(e.graph, algorithm, k)
	if err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrAlgorithm), "clustering")
	}
	e.log.Infow("Clusters", "count", len(p))
	for _, set := range p {
		e.log.Debugw("Cluster", "vertices", set)
	}
	return p, nil
}
