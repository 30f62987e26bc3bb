// Package graph implements the in-memory graph model: a directed multigraph
// of labelled vertices and edges carrying attribute bags. Self-loops and
// parallel edges are allowed.
//
// A Graph belongs to one core.Session, which allocates ids and owns the
// attribute type registry. Graphs are not safe for concurrent mutation.
package graph

import (
	"sort"
	"strconv"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/errors"
)

// DefaultWeight is the weight of an edge with neither an explicit weight nor
// a usable label weight attribute.
const DefaultWeight = 1.0

// Vertex is a labelled entity of the graph.
type Vertex struct {
	ID    int64
	Attrs *core.Bag

	session *core.Session
}

// Label returns the category of the vertex, e.g. "alert" or "source".
func (v *Vertex) Label() string {
	return v.Attrs.Text(v.session.Labels().VertexKey)
}

// Name returns the display name of the vertex: the value of the name
// attribute registered for its label, or the label itself.
func (v *Vertex) Name() string {
	label := v.Label()
	if attr, ok := v.session.Labels().VertexNames[label]; ok {
		if val, ok := v.Attrs.Get(attr); ok {
			return val.String()
		}
	}
	return label
}

func (v *Vertex) String() string {
	return v.Label() + "(" + strconv.FormatInt(v.ID, 10) + ")"
}

// Edge is a directed, labelled relation between two vertices.
type Edge struct {
	ID     int64
	Source int64
	Target int64
	Attrs  *core.Bag

	weight    float64
	hasWeight bool
	session   *core.Session
}

// Label returns the relation kind of the edge, e.g. "distance" or "has".
func (e *Edge) Label() string {
	return e.Attrs.Text(e.session.Labels().EdgeKey)
}

// Name returns the display name of the edge: the value of the name attribute
// registered for its label, or the label itself.
func (e *Edge) Name() string {
	label := e.Label()
	if attr, ok := e.session.Labels().EdgeNames[label]; ok {
		if val, ok := e.Attrs.Get(attr); ok {
			return val.String()
		}
	}
	return label
}

// SetWeight sets an explicit weight, which takes precedence over the label
// weight table.
func (e *Edge) SetWeight(w float64) {
	e.weight = w
	e.hasWeight = true
}

// HasExplicitWeight reports whether SetWeight was called.
func (e *Edge) HasExplicitWeight() bool {
	return e.hasWeight
}

// Weight returns the explicit weight if set, otherwise the value of the
// weight attribute registered for the edge label, otherwise DefaultWeight.
func (e *Edge) Weight() float64 {
	if e.hasWeight {
		return e.weight
	}
	if w, ok := GeneratedWeight(e.session.Labels(), e.Label(), e.Attrs); ok {
		return w
	}
	return DefaultWeight
}

// IsLoop reports whether the edge starts and ends at the same vertex.
func (e *Edge) IsLoop() bool {
	return e.Source == e.Target
}

// GeneratedWeight looks up the weight attribute of label in labels and
// coerces its value in attrs. ok is false when the label has no weight
// attribute or the value is missing or not numeric.
func GeneratedWeight(labels core.Labels, label string, attrs *core.Bag) (float64, bool) {
	attr, ok := labels.EdgeWeights[label]
	if !ok {
		return 0, false
	}
	w, err := attrs.Float(attr)
	if err != nil {
		return 0, false
	}
	return w, true
}

// Graph is a directed multigraph.
type Graph struct {
	session *core.Session

	vertices []*Vertex
	vindex   map[int64]int
	edges    []*Edge
	eindex   map[int64]int
	out      map[int64][]*Edge
	in       map[int64][]*Edge
}

// New creates an empty graph bound to s.
func New(s *core.Session) *Graph {
	return &Graph{
		session: s,
		vindex:  make(map[int64]int),
		eindex:  make(map[int64]int),
		out:     make(map[int64][]*Edge),
		in:      make(map[int64][]*Edge),
	}
}

// Session returns the session the graph belongs to.
func (g *Graph) Session() *core.Session {
	return g.session
}

// AddVertex creates a vertex with a fresh id and the given label.
func (g *Graph) AddVertex(label string) *Vertex {
	v, _ := g.AddVertexWithID(g.session.NextVertexID(), label)
	return v
}

// AddVertexWithID creates a vertex with a caller-chosen id, as readers do
// when an input file carries ids. The session counter is advanced past id.
func (g *Graph) AddVertexWithID(id int64, label string) (*Vertex, error) {
	if _, dup := g.vindex[id]; dup {
		return nil, errors.NewConfigurationError("duplicate vertex id %d", id)
	}
	g.session.ReserveVertexID(id)
	v := &Vertex{ID: id, Attrs: g.session.NewBag(), session: g.session}
	if label != "" {
		v.Attrs.Put(g.session.Labels().VertexKey, core.Text(label))
	}
	g.vindex[id] = len(g.vertices)
	g.vertices = append(g.vertices, v)
	return v, nil
}

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id int64) (*Vertex, bool) {
	i, ok := g.vindex[id]
	if !ok {
		return nil, false
	}
	return g.vertices[i], true
}

// Vertices returns all vertices in insertion order.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// VerticesByLabel returns the vertices carrying label, in insertion order.
// An empty label selects every vertex.
func (g *Graph) VerticesByLabel(label string) []*Vertex {
	if label == "" {
		return g.Vertices()
	}
	var out []*Vertex
	for _, v := range g.vertices {
		if v.Label() == label {
			out = append(out, v)
		}
	}
	return out
}

// AddEdge creates an edge with a fresh id between two existing vertices.
func (g *Graph) AddEdge(source, target int64, label string) (*Edge, error) {
	if err := g.checkEnds(source, target); err != nil {
		return nil, err
	}
	return g.AddEdgeWithID(g.session.NextEdgeID(), source, target, label)
}

// AddEdgeWithID creates an edge with a caller-chosen id.
func (g *Graph) AddEdgeWithID(id, source, target int64, label string) (*Edge, error) {
	if err := g.checkEnds(source, target); err != nil {
		return nil, err
	}
	if _, dup := g.eindex[id]; dup {
		return nil, errors.NewConfigurationError("duplicate edge id %d", id)
	}
	g.session.ReserveEdgeID(id)
	e := &Edge{ID: id, Source: source, Target: target, Attrs: g.session.NewBag(), session: g.session}
	if label != "" {
		e.Attrs.Put(g.session.Labels().EdgeKey, core.Text(label))
	}
	g.eindex[id] = len(g.edges)
	g.edges = append(g.edges, e)
	g.out[source] = append(g.out[source], e)
	g.in[target] = append(g.in[target], e)
	return e, nil
}

func (g *Graph) checkEnds(source, target int64) error {
	if _, ok := g.vindex[source]; !ok {
		return errors.NewConfigurationError("edge source %d is not a vertex", source)
	}
	if _, ok := g.vindex[target]; !ok {
		return errors.NewConfigurationError("edge target %d is not a vertex", target)
	}
	return nil
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id int64) (*Edge, bool) {
	i, ok := g.eindex[id]
	if !ok {
		return nil, false
	}
	return g.edges[i], true
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgesByLabel returns the edges carrying label. An empty label selects all.
func (g *Graph) EdgesByLabel(label string) []*Edge {
	if label == "" {
		return g.Edges()
	}
	var out []*Edge
	for _, e := range g.edges {
		if e.Label() == label {
			out = append(out, e)
		}
	}
	return out
}

// OutEdges returns the edges leaving id.
func (g *Graph) OutEdges(id int64) []*Edge {
	return g.out[id]
}

// InEdges returns the edges entering id.
func (g *Graph) InEdges(id int64) []*Edge {
	return g.in[id]
}

// IncidentEdges returns every edge touching id. A self-loop appears once.
func (g *Graph) IncidentEdges(id int64) []*Edge {
	outs, ins := g.out[id], g.in[id]
	res := make([]*Edge, 0, len(outs)+len(ins))
	res = append(res, outs...)
	for _, e := range ins {
		if !e.IsLoop() {
			res = append(res, e)
		}
	}
	return res
}

// Order returns the number of vertices.
func (g *Graph) Order() int { return len(g.vertices) }

// Size returns the number of edges.
func (g *Graph) Size() int { return len(g.edges) }

// Stats summarizes the graph by label.
type Stats struct {
	Vertices      int            `json:"vertices"`
	Edges         int            `json:"edges"`
	VertexLabels  map[string]int `json:"vertex_labels"`
	EdgeLabels    map[string]int `json:"edge_labels"`
	AttributeKeys int            `json:"attribute_keys"`
}

// Stats counts vertices and edges per label.
func (g *Graph) Stats() Stats {
	st := Stats{
		Vertices:      len(g.vertices),
		Edges:         len(g.edges),
		VertexLabels:  make(map[string]int),
		EdgeLabels:    make(map[string]int),
		AttributeKeys: g.session.Registry.Len(),
	}
	for _, v := range g.vertices {
		st.VertexLabels[v.Label()]++
	}
	for _, e := range g.edges {
		st.EdgeLabels[e.Label()]++
	}
	return st
}

// VertexLabels returns the distinct vertex labels in lexicographic order.
func (g *Graph) VertexLabels() []string {
	seen := make(map[string]struct{})
	for _, v := range g.vertices {
		seen[v.Label()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
