package graphio

import (
	"io"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
)

// dotNode renders a vertex as its label and id, e.g. alert(3).
type dotNode struct {
	v *graph.Vertex
}

func (n dotNode) ID() int64 { return n.v.ID }

func (n dotNode) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{{Key: "label", Value: n.v.String()}}
	if name := n.v.Name(); name != n.v.Label() {
		attrs = append(attrs, encoding.Attribute{Key: "tooltip", Value: name})
	}
	return attrs
}

// dotLine renders an edge with its display name.
type dotLine struct {
	e        *graph.Edge
	from, to dotNode
}

func (l dotLine) From() gonumgraph.Node { return l.from }
func (l dotLine) To() gonumgraph.Node   { return l.to }
func (l dotLine) ID() int64             { return l.e.ID }

func (l dotLine) ReversedLine() gonumgraph.Line {
	return dotLine{e: l.e, from: l.to, to: l.from}
}

func (l dotLine) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: l.e.Name()}}
}

// WriteDOT encodes g as a Graphviz digraph. Parallel edges and self-loops
// are kept.
func WriteDOT(w io.Writer, g *graph.Graph) error {
	mg := multi.NewDirectedGraph()
	nodes := make(map[int64]dotNode, g.Order())
	for _, v := range g.Vertices() {
		n := dotNode{v: v}
		nodes[v.ID] = n
		mg.AddNode(n)
	}
	for _, e := range g.Edges() {
		mg.SetLine(dotLine{e: e, from: nodes[e.Source], to: nodes[e.Target]})
	}

	b, err := dot.MarshalMulti(mg, "G", "", "\t")
	if err != nil {
		return errors.Wrap(errors.Mark(err, errors.ErrIO), "encoding DOT")
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return errors.Mark(err, errors.ErrIO)
	}
	return nil
}
