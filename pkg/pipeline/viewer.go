package pipeline

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/sanonone/kektorgraph/pkg/graph"
)

// Viewer receives the graph once a pipeline has run. Show must not modify g.
type Viewer interface {
	Show(g *graph.Graph)
}

// ViewerFunc adapts a function to Viewer.
type ViewerFunc func(g *graph.Graph)

// Show calls f(g).
func (f ViewerFunc) Show(g *graph.Graph) { f(g) }

// LogViewer prints a per-label summary of the graph to a logger.
type LogViewer struct {
	Log *zap.SugaredLogger
}

// Show logs vertex and edge counts per label.
func (v LogViewer) Show(g *graph.Graph) {
	log := v.Log
	if log == nil {
		log = g.Session().Logger()
	}
	st := g.Stats()
	log.Infow("Graph", "vertices", st.Vertices, "edges", st.Edges, "attributes", st.AttributeKeys)
	for _, label := range g.VertexLabels() {
		log.Infow("Vertices", "label", label, "count", st.VertexLabels[label])
	}
	for _, label := range slices.Sorted(maps.Keys(st.EdgeLabels)) {
		log.Infow("Edges", "label", label, "count", st.EdgeLabels[label])
	}
}
