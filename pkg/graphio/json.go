package graphio

import (
	"encoding/json"
	"io"
	"maps"
	"slices"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
)

// jsonValue keeps both the declared kind and the stored text, so a round
// trip preserves values that do not parse as their kind.
type jsonValue struct {
	Kind  core.Kind `json:"kind"`
	Value string    `json:"value"`
}

type jsonVertex struct {
	ID         int64                `json:"id"`
	Attributes map[string]jsonValue `json:"attributes,omitempty"`
}

type jsonEdge struct {
	ID         int64                `json:"id"`
	Source     int64                `json:"source"`
	Target     int64                `json:"target"`
	Weight     *float64             `json:"weight,omitempty"`
	Attributes map[string]jsonValue `json:"attributes,omitempty"`
}

type jsonGraph struct {
	Session  string       `json:"session,omitempty"`
	Vertices []jsonVertex `json:"vertices"`
	Edges    []jsonEdge   `json:"edges"`
}

func bagToJSON(b *core.Bag) map[string]jsonValue {
	if b.Len() == 0 {
		return nil
	}
	out := make(map[string]jsonValue, b.Len())
	b.Range(func(name string, v core.Value) bool {
		out[name] = jsonValue{Kind: v.Kind(), Value: v.String()}
		return true
	})
	return out
}

func jsonToBag(b *core.Bag, attrs map[string]jsonValue) error {
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		jv := attrs[name]
		kind := jv.Kind
		if kind == "" {
			kind = core.KindString
		}
		if _, err := core.ParseKind(string(kind)); err != nil {
			return errors.Wrapf(errors.Mark(err, errors.ErrIO), "attribute %q", name)
		}
		b.Put(name, core.ParseValue(kind, jv.Value))
	}
	return nil
}

// WriteJSON encodes g in the native JSON format.
func WriteJSON(w io.Writer, g *graph.Graph) error {
	doc := jsonGraph{
		Session:  g.Session().ID.String(),
		Vertices: make([]jsonVertex, 0, g.Order()),
		Edges:    make([]jsonEdge, 0, g.Size()),
	}
	for _, v := range g.Vertices() {
		doc.Vertices = append(doc.Vertices, jsonVertex{ID: v.ID, Attributes: bagToJSON(v.Attrs)})
	}
	for _, e := range g.Edges() {
		je := jsonEdge{ID: e.ID, Source: e.Source, Target: e.Target, Attributes: bagToJSON(e.Attrs)}
		if e.HasExplicitWeight() {
			w := e.Weight()
			je.Weight = &w
		}
		doc.Edges = append(doc.Edges, je)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.Mark(err, errors.ErrIO), "encoding JSON graph")
	}
	return nil
}

// ReadJSON decodes a graph written by WriteJSON into a new graph of s.
// Element ids are kept. Attributes are registered in lexicographic name
// order per element, so kind registration does not depend on map order.
func ReadJSON(r io.Reader, s *core.Session, opts ...ReadOption) (*graph.Graph, error) {
	o := applyOptions(opts)

	var doc jsonGraph
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrIO), "decoding JSON graph")
	}

	g := graph.New(s)
	for _, jv := range doc.Vertices {
		v, err := g.AddVertexWithID(jv.ID, "")
		if err != nil {
			return nil, errors.Mark(err, errors.ErrIO)
		}
		if err := jsonToBag(v.Attrs, jv.Attributes); err != nil {
			return nil, errors.Wrapf(err, "vertex %d", jv.ID)
		}
	}
	if o.skipEdges {
		return g, nil
	}
	for _, je := range doc.Edges {
		e, err := g.AddEdgeWithID(je.ID, je.Source, je.Target, "")
		if err != nil {
			return nil, errors.Mark(err, errors.ErrIO)
		}
		if err := jsonToBag(e.Attrs, je.Attributes); err != nil {
			return nil, errors.Wrapf(err, "edge %d", je.ID)
		}
		if je.Weight != nil {
			e.SetWeight(*je.Weight)
		}
	}
	s.Logger().Infow("JSON graph read", "vertices", g.Order(), "edges", g.Size())
	return g, nil
}
